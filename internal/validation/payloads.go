package validation

import (
	"strings"
	"time"
)

// FieldError ties a validation message to the field it concerns.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Monetary bounds for marketplace payloads.
const (
	MinListingPrice = 1.00
	MaxListingPrice = 10_000_000.00
	MinBidAmount    = 0.01
	MaxBidAmount    = 10_000_000.00

	minTitleLength       = 3
	maxTitleLength       = 150
	maxDescriptionLength = 5000
)

// AuctionListingInput is the raw listing payload as received from a client.
type AuctionListingInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartingPrice string `json:"startingPrice"`
	ReservePrice  string `json:"reservePrice,omitempty"`
	CategoryID    string `json:"categoryId"`
	EndTime       string `json:"endTime"`
}

// AuctionListing is the sanitized listing, safe to persist.
type AuctionListing struct {
	Title         string
	Description   string
	StartingPrice float64
	ReservePrice  float64
	HasReserve    bool
	CategoryID    string
	EndTime       time.Time
}

// BidInput is the raw bid payload.
type BidInput struct {
	AuctionID string `json:"auctionId"`
	Amount    string `json:"amount"`
}

// Bid is the sanitized bid.
type Bid struct {
	AuctionID string
	Amount    float64
}

// ValidateAuctionListing checks every field independently and collects all
// errors rather than stopping at the first. Free-text fields come back with
// dangerous markup stripped. The sanitized listing is meaningful only when
// the error slice is empty.
func ValidateAuctionListing(in AuctionListingInput, now time.Time) (AuctionListing, []FieldError) {
	var errs []FieldError
	var out AuctionListing

	title := StripDangerousHTML(in.Title)
	switch {
	case title == "":
		errs = append(errs, FieldError{"title", "Title is required"})
	case len(title) < minTitleLength:
		errs = append(errs, FieldError{"title", "Title must be at least 3 characters"})
	case len(title) > maxTitleLength:
		errs = append(errs, FieldError{"title", "Title must be at most 150 characters"})
	default:
		out.Title = title
	}

	desc := StripDangerousHTML(in.Description)
	if len(desc) > maxDescriptionLength {
		errs = append(errs, FieldError{"description", "Description must be at most 5000 characters"})
	} else {
		out.Description = desc
	}

	if price, res := Amount(in.StartingPrice, MinListingPrice, MaxListingPrice); res.Valid {
		out.StartingPrice = price
	} else {
		errs = append(errs, FieldError{"startingPrice", res.Error})
	}

	if strings.TrimSpace(in.ReservePrice) != "" {
		if reserve, res := Amount(in.ReservePrice, MinListingPrice, MaxListingPrice); res.Valid {
			out.ReservePrice = reserve
			out.HasReserve = true
		} else {
			errs = append(errs, FieldError{"reservePrice", res.Error})
		}
	}
	if out.HasReserve && out.StartingPrice > 0 && out.ReservePrice < out.StartingPrice {
		errs = append(errs, FieldError{"reservePrice", "Reserve price must not be below the starting price"})
	}

	if res := ID(in.CategoryID); res.Valid {
		out.CategoryID = res.Sanitized
	} else {
		errs = append(errs, FieldError{"categoryId", res.Error})
	}

	if end, err := time.Parse(time.RFC3339, strings.TrimSpace(in.EndTime)); err != nil {
		errs = append(errs, FieldError{"endTime", "End time must be an RFC 3339 timestamp"})
	} else if !end.After(now) {
		errs = append(errs, FieldError{"endTime", "End time must be in the future"})
	} else {
		out.EndTime = end
	}

	return out, errs
}

// ValidateBid checks a bid payload, collecting all errors.
func ValidateBid(in BidInput) (Bid, []FieldError) {
	var errs []FieldError
	var out Bid

	if res := ID(in.AuctionID); res.Valid {
		out.AuctionID = res.Sanitized
	} else {
		errs = append(errs, FieldError{"auctionId", res.Error})
	}
	if amount, res := Amount(in.Amount, MinBidAmount, MaxBidAmount); res.Valid {
		out.Amount = amount
	} else {
		errs = append(errs, FieldError{"amount", res.Error})
	}
	return out, errs
}
