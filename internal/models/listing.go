package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing types.
const (
	TypeSale = "sale"
	TypeRent = "rent"
)

// MaxImages bounds Listing.ImageURLs.
const MaxImages = 6

// Listing is a property record stored in MongoDB.
type Listing struct {
	ID              primitive.ObjectID `json:"_id"                       bson:"_id,omitempty"`
	Name            string             `json:"name"                      bson:"name"`
	Description     string             `json:"description"               bson:"description"`
	Address         string             `json:"address"                   bson:"address"`
	RegularPrice    float64            `json:"regularPrice"              bson:"regularPrice"`
	DiscountedPrice *float64           `json:"discountedPrice,omitempty" bson:"discountedPrice,omitempty"`
	Bathrooms       int                `json:"bathrooms"                 bson:"bathrooms"`
	Bedrooms        int                `json:"bedrooms"                  bson:"bedrooms"`
	Furnished       bool               `json:"furnished"                 bson:"furnished"`
	Parking         bool               `json:"parking"                   bson:"parking"`
	Offer           bool               `json:"offer"                     bson:"offer"`
	Type            string             `json:"type"                      bson:"type"`
	ImageURLs       []string           `json:"imageUrls"                 bson:"imageUrls"`
	UserRef         string             `json:"userRef"                   bson:"userRef"`
	CreatedAt       time.Time          `json:"createdAt"                 bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"                 bson:"updatedAt"`
}

// ListingRequest is the JSON body for listing create and update. Booleans
// and the regular price are pointers so "missing" differs from false/0.
type ListingRequest struct {
	Name            string   `json:"name"            validate:"required"`
	Description     string   `json:"description"     validate:"required"`
	Address         string   `json:"address"         validate:"required"`
	RegularPrice    *float64 `json:"regularPrice"    validate:"required,gte=0"`
	DiscountedPrice *float64 `json:"discountedPrice" validate:"omitempty,gte=0"`
	Bathrooms       int      `json:"bathrooms"       validate:"required,min=1"`
	Bedrooms        int      `json:"bedrooms"        validate:"required,min=1"`
	Furnished       *bool    `json:"furnished"       validate:"required"`
	Parking         *bool    `json:"parking"         validate:"required"`
	Offer           *bool    `json:"offer"           validate:"required"`
	Type            string   `json:"type"            validate:"required,oneof=sale rent"`
	ImageURLs       []string `json:"imageUrls"       validate:"required,min=1,max=6,dive,url"`
}

// ToListing builds the record owned by userRef. The discounted price is kept
// only for offers.
func (r *ListingRequest) ToListing(userRef string) *Listing {
	l := &Listing{
		Name:         r.Name,
		Description:  r.Description,
		Address:      r.Address,
		RegularPrice: *r.RegularPrice,
		Bathrooms:    r.Bathrooms,
		Bedrooms:     r.Bedrooms,
		Furnished:    *r.Furnished,
		Parking:      *r.Parking,
		Offer:        *r.Offer,
		Type:         r.Type,
		ImageURLs:    r.ImageURLs,
		UserRef:      userRef,
	}
	if l.Offer && r.DiscountedPrice != nil {
		d := *r.DiscountedPrice
		l.DiscountedPrice = &d
	}
	return l
}
