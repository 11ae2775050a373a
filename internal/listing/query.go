package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/models"
)

const (
	DefaultLimit = 9
	MaxLimit     = 50
	DefaultSort  = "createdAt"
)

var sortFields = map[string]bool{
	"createdAt":       true,
	"updatedAt":       true,
	"regularPrice":    true,
	"discountedPrice": true,
	"name":            true,
}

// Params is a parsed search request. The boolean flags only ever narrow the
// result: false means "any value", never "must be false".
type Params struct {
	SearchTerm string
	Type       string // "" matches both sale and rent
	Parking    bool
	Furnished  bool
	Offer      bool
	Sort       string
	Ascending  bool
	Limit      int
	StartIndex int
}

// Query is the Mongo find request a Params translates to.
type Query struct {
	Filter bson.D
	Sort   bson.D
	Skip   int64
	Limit  int64
}

// FindOptions returns the sort and pagination options for Find.
func (q Query) FindOptions() *options.FindOptions {
	return options.Find().SetSort(q.Sort).SetSkip(q.Skip).SetLimit(q.Limit)
}

// ParseParams reads the search query string. Absent values take their
// defaults; values that cannot be parsed are validation errors.
func ParseParams(v url.Values) (Params, error) {
	p := Params{
		SearchTerm: strings.TrimSpace(v.Get("searchTerm")),
		Sort:       DefaultSort,
		Limit:      DefaultLimit,
	}

	var err error
	if p.Parking, err = parseFlag(v, "parking"); err != nil {
		return Params{}, err
	}
	if p.Furnished, err = parseFlag(v, "furnished"); err != nil {
		return Params{}, err
	}
	if p.Offer, err = parseFlag(v, "offer"); err != nil {
		return Params{}, err
	}

	switch t := strings.ToLower(v.Get("type")); t {
	case "", "all":
	case models.TypeSale, models.TypeRent:
		p.Type = t
	case "offer":
		p.Offer = true
	default:
		return Params{}, apperr.New(apperr.Validation, "type must be one of: all sale rent offer")
	}

	if s := v.Get("sort"); sortFields[s] {
		p.Sort = s
	}

	switch o := strings.ToLower(v.Get("order")); o {
	case "", "desc":
	case "asc":
		p.Ascending = true
	default:
		return Params{}, apperr.New(apperr.Validation, "order must be asc or desc")
	}

	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, apperr.Wrap(apperr.Validation, "limit must be an integer", err)
		}
		p.Limit = min(max(n, 1), MaxLimit)
	}

	if s := v.Get("startIndex"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Params{}, apperr.New(apperr.Validation, "startIndex must be a non-negative integer")
		}
		p.StartIndex = n
	}

	return p, nil
}

func parseFlag(v url.Values, key string) (bool, error) {
	s := v.Get(key)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperr.Wrap(apperr.Validation, key+" must be true or false", err)
	}
	return b, nil
}

// Filter builds the Mongo filter. An empty search term matches every name.
func (p Params) Filter() bson.D {
	filter := bson.D{}
	if p.SearchTerm != "" {
		filter = append(filter, bson.E{Key: "name", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(p.SearchTerm),
			Options: "i",
		}})
	}
	if p.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: p.Type})
	}
	if p.Offer {
		filter = append(filter, bson.E{Key: "offer", Value: true})
	}
	if p.Furnished {
		filter = append(filter, bson.E{Key: "furnished", Value: true})
	}
	if p.Parking {
		filter = append(filter, bson.E{Key: "parking", Value: true})
	}
	return filter
}

// Build translates p into a Query. _id breaks sort ties so that pages do
// not overlap when the caller walks startIndex forward.
func (p Params) Build() Query {
	dir := -1
	if p.Ascending {
		dir = 1
	}
	return Query{
		Filter: p.Filter(),
		Sort:   bson.D{{Key: p.Sort, Value: dir}, {Key: "_id", Value: dir}},
		Skip:   int64(p.StartIndex),
		Limit:  int64(p.Limit),
	}
}

// CacheKey is a canonical rendering of p; equal searches share a key.
func (p Params) CacheKey() string {
	order := "desc"
	if p.Ascending {
		order = "asc"
	}
	return fmt.Sprintf("q=%s|type=%s|parking=%t|furnished=%t|offer=%t|sort=%s|order=%s|limit=%d|start=%d",
		strings.ToLower(p.SearchTerm), p.Type, p.Parking, p.Furnished, p.Offer, p.Sort, order, p.Limit, p.StartIndex)
}
