package client

import "time"

// User is a profile as returned by the API. It never carries a password.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Listing struct {
	ID              string    `json:"_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Address         string    `json:"address"`
	RegularPrice    float64   `json:"regularPrice"`
	DiscountedPrice *float64  `json:"discountedPrice,omitempty"`
	Bathrooms       int       `json:"bathrooms"`
	Bedrooms        int       `json:"bedrooms"`
	Furnished       bool      `json:"furnished"`
	Parking         bool      `json:"parking"`
	Offer           bool      `json:"offer"`
	Type            string    `json:"type"`
	ImageURLs       []string  `json:"imageUrls"`
	UserRef         string    `json:"userRef"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ListingInput is the body for creating or updating a listing.
type ListingInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	RegularPrice    float64  `json:"regularPrice"`
	DiscountedPrice *float64 `json:"discountedPrice,omitempty"`
	Bathrooms       int      `json:"bathrooms"`
	Bedrooms        int      `json:"bedrooms"`
	Furnished       bool     `json:"furnished"`
	Parking         bool     `json:"parking"`
	Offer           bool     `json:"offer"`
	Type            string   `json:"type"`
	ImageURLs       []string `json:"imageUrls"`
}

// ProfileUpdate is a partial profile change; nil fields are left alone.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// SearchParams mirrors the listing search query string. Zero values are
// omitted and take the server defaults.
type SearchParams struct {
	SearchTerm string
	Type       string
	Parking    bool
	Furnished  bool
	Offer      bool
	Sort       string
	Order      string
	Limit      int
	StartIndex int
}
