package api

import "time"

// Tokens is an access/refresh token pair.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// DesignConfig is the full designer state saved with a design.
type DesignConfig struct {
	ProductID          string   `json:"productId"`
	ColorID            string   `json:"colorId"`
	SizeID             string   `json:"sizeId"`
	CustomText         *string  `json:"customText"`
	DesignImageURL     string   `json:"designImageUrl"`
	ShirtColorHex      string   `json:"shirtColorHex"`
	IsLogoMode         bool     `json:"isLogoMode"`
	LogoScale          *float64 `json:"logoScale"`
	LogoOffsetX        *float64 `json:"logoOffsetX"`
	LogoOffsetY        *float64 `json:"logoOffsetY"`
	LogoTargetPart     *string  `json:"logoTargetPart"`
	UploadedLogoURL    *string  `json:"uploadedLogoUrl"`
	UploadedPatternURL *string  `json:"uploadedPatternUrl"`
}

// SavedDesign is a design owned by the current user.
type SavedDesign struct {
	DesignConfig
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	DesignName string    `json:"designName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Color is a product color option.
type Color struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Size is a product size option.
type Size struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Image is a product image.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Product is a storefront product.
type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      string  `json:"price"`
	IsFeatured bool    `json:"isFeatured"`
	Size       *Size   `json:"size,omitempty"`
	Color      *Color  `json:"color,omitempty"`
	Images     []Image `json:"images,omitempty"`
}

// Creator is the public profile of a design's author.
type Creator struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
	Bio   *string `json:"bio,omitempty"`
}

// DesignDetails is a shared design as shown on its public page.
type DesignDetails struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	CustomText     *string   `json:"customText"`
	DesignImageURL *string   `json:"designImageUrl"`
	MockupImageURL *string   `json:"mockupImageUrl"`
	Description    *string   `json:"description"`
	Tags           []string  `json:"tags"`
	ViewCount      *int      `json:"viewCount"`
	IsShared       bool      `json:"isShared"`
	AverageRating  *float64  `json:"averageRating"`
	RatingCount    *int      `json:"ratingCount"`
	UsageRights    *string   `json:"usageRights"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Product        *Product  `json:"product,omitempty"`
	Color          *Color    `json:"color,omitempty"`
	AvailableSizes []Size    `json:"availableSizes"`
	Creator        *Creator  `json:"creator"`
}

// MarketplaceItem is a shared design listed for sale.
type MarketplaceItem struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	ProductImage   *string   `json:"productImage"`
	DesignImageURL *string   `json:"designImageUrl,omitempty"`
	MockupImageURL *string   `json:"mockupImageUrl,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Color          Color     `json:"color"`
	Size           Size      `json:"size"`
	Creator        *Creator  `json:"creator,omitempty"`
	ViewCount      *int      `json:"viewCount,omitempty"`
	AverageRating  *float64  `json:"averageRating,omitempty"`
	RatingCount    *int      `json:"ratingCount,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MarketplaceQuery filters the marketplace listing. Zero values are omitted.
type MarketplaceQuery struct {
	Search    string
	Tags      []string
	Sort      string // newest, views or rating
	CreatorID string
}

// RatingUser is the public profile attached to a rating.
type RatingUser struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// Rating is one user's score for a design.
type Rating struct {
	ID        string     `json:"id"`
	Score     int        `json:"score"`
	Comment   *string    `json:"comment"`
	CreatedAt time.Time  `json:"createdAt"`
	UserID    string     `json:"userId"`
	User      RatingUser `json:"user"`
}

// Pagination describes a page of results.
type Pagination struct {
	TotalCount  int `json:"totalCount"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	PerPage     int `json:"perPage"`
}

// RatingsPage is one page of ratings.
type RatingsPage struct {
	Data []Rating   `json:"data"`
	Meta Pagination `json:"meta"`
}

// RatedBy reports whether userID appears on the page.
func (p *RatingsPage) RatedBy(userID string) bool {
	for _, r := range p.Data {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// UploadTarget is a presigned object storage upload.
type UploadTarget struct {
	PresignedURL string `json:"presignedUrl"`
	ObjectKey    string `json:"objectKey"`
}
