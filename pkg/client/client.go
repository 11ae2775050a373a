// Package client is a Go client for the marketplace API. Session cookies are
// kept in a cookie jar, and account operations update a shared State the
// way the web app's store does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNotSignedIn is returned by operations that need a current user.
var ErrNotSignedIn = errors.New("client: not signed in")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	state      *State
}

type Option func(*Client)

// WithHTTPClient replaces the default client. A nil Jar is given one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithState shares st with other clients or the caller.
func WithState(st *State) Option {
	return func(c *Client) { c.state = st }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		state:      &State{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// State returns the application state the client updates.
func (c *Client) State() *State { return c.state }

type messageBody struct {
	Message string `json:"message"`
}

type authBody struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignUp creates an account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, username, email, password string) Result[string] {
	var out messageBody
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username, "email": email, "password": password,
	}, &out)
	if err != nil {
		return failed[string](err)
	}
	return succeed(out.Message)
}

// SignIn authenticates and records the user as current.
func (c *Client) SignIn(ctx context.Context, email, password string) Result[*User] {
	return c.authenticate(ctx, "/api/auth/signin", map[string]string{
		"email": email, "password": password,
	})
}

// Google forwards an identity asserted by the OAuth provider.
func (c *Client) Google(ctx context.Context, name, email, photo string) Result[*User] {
	return c.authenticate(ctx, "/api/auth/google", map[string]string{
		"name": name, "email": email, "photo": photo,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) Result[*User] {
	c.state.start()
	var out authBody
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		c.state.fail(err)
		return failed[*User](err)
	}
	c.state.succeed(out.User)
	return succeed(out.User)
}

// SignOut clears the session cookie and the current user.
func (c *Client) SignOut(ctx context.Context) Result[string] {
	c.state.start()
	var out messageBody
	if err := c.do(ctx, http.MethodGet, "/api/auth/signout", nil, &out); err != nil {
		c.state.fail(err)
		return failed[string](err)
	}
	c.state.succeed(nil)
	return succeed(out.Message)
}

// UpdateProfile changes the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) Result[*User] {
	me := c.state.CurrentUser()
	if me == nil {
		return failed[*User](ErrNotSignedIn)
	}
	c.state.start()
	var out User
	if err := c.do(ctx, http.MethodPost, "/api/user/update/"+url.PathEscape(me.ID), upd, &out); err != nil {
		c.state.fail(err)
		return failed[*User](err)
	}
	c.state.succeed(&out)
	return succeed(&out)
}

// DeleteAccount removes the current user and their listings.
func (c *Client) DeleteAccount(ctx context.Context) Result[string] {
	me := c.state.CurrentUser()
	if me == nil {
		return failed[string](ErrNotSignedIn)
	}
	c.state.start()
	var out messageBody
	if err := c.do(ctx, http.MethodDelete, "/api/user/delete/"+url.PathEscape(me.ID), nil, &out); err != nil {
		c.state.fail(err)
		return failed[string](err)
	}
	c.state.succeed(nil)
	return succeed(out.Message)
}

// MyListings returns the current user's listings.
func (c *Client) MyListings(ctx context.Context) Result[[]Listing] {
	me := c.state.CurrentUser()
	if me == nil {
		return failed[[]Listing](ErrNotSignedIn)
	}
	var out []Listing
	if err := c.do(ctx, http.MethodGet, "/api/user/listings/"+url.PathEscape(me.ID), nil, &out); err != nil {
		return failed[[]Listing](err)
	}
	return succeed(out)
}

// Landlord returns another user's public profile.
func (c *Client) Landlord(ctx context.Context, userID string) Result[*User] {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return failed[*User](err)
	}
	return succeed(&out)
}

func (c *Client) CreateListing(ctx context.Context, in ListingInput) Result[*Listing] {
	var out Listing
	if err := c.do(ctx, http.MethodPost, "/api/listing/create", in, &out); err != nil {
		return failed[*Listing](err)
	}
	return succeed(&out)
}

func (c *Client) UpdateListing(ctx context.Context, id string, in ListingInput) Result[*Listing] {
	var out Listing
	if err := c.do(ctx, http.MethodPost, "/api/listing/update/"+url.PathEscape(id), in, &out); err != nil {
		return failed[*Listing](err)
	}
	return succeed(&out)
}

func (c *Client) DeleteListing(ctx context.Context, id string) Result[string] {
	var out messageBody
	if err := c.do(ctx, http.MethodDelete, "/api/listing/delete/"+url.PathEscape(id), nil, &out); err != nil {
		return failed[string](err)
	}
	return succeed(out.Message)
}

func (c *Client) GetListing(ctx context.Context, id string) Result[*Listing] {
	var out Listing
	if err := c.do(ctx, http.MethodGet, "/api/listing/get/"+url.PathEscape(id), nil, &out); err != nil {
		return failed[*Listing](err)
	}
	return succeed(&out)
}

// Search fetches one page of listings. Callers page by advancing
// StartIndex by the number of results received.
func (c *Client) Search(ctx context.Context, p SearchParams) Result[[]Listing] {
	var out []Listing
	if err := c.do(ctx, http.MethodGet, "/api/listing/get?"+p.Encode(), nil, &out); err != nil {
		return failed[[]Listing](err)
	}
	return succeed(out)
}

// Encode renders p as a query string, omitting zero values.
func (p SearchParams) Encode() string {
	v := url.Values{}
	if p.SearchTerm != "" {
		v.Set("searchTerm", p.SearchTerm)
	}
	if p.Type != "" {
		v.Set("type", p.Type)
	}
	for key, on := range map[string]bool{"parking": p.Parking, "furnished": p.Furnished, "offer": p.Offer} {
		if on {
			v.Set(key, "true")
		}
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Order != "" {
		v.Set("order", p.Order)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.StartIndex > 0 {
		v.Set("startIndex", strconv.Itoa(p.StartIndex))
	}
	return v.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResp(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// checkResp turns a non-2xx response into an *APIError.
func checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
