package model

import "time"

// DefaultMarket names the market of a price report that gives none.
const DefaultMarket = "Local Market"

// VerificationStatus is the review state of a price report.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Vote is a vendor's opinion of a price report.
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// ProofCheck is what reading a proof photo found.
type ProofCheck struct {
	Success       bool    `json:"success"`
	Confidence    float64 `json:"confidence"`
	ExtractedText string  `json:"extractedText"`
	ItemMatch     bool    `json:"itemMatch"`
	PriceMatch    bool    `json:"priceMatch"`
	Error         string  `json:"error,omitempty"`
}

// PriceEntry is a mandi price a vendor reported with a proof photo.
type PriceEntry struct {
	ID                 string             `json:"id"`
	VendorID           string             `json:"vendorId"`
	VendorName         string             `json:"vendorName"`
	Item               string             `json:"item"`
	Price              float64            `json:"price"`
	Unit               string             `json:"unit"`
	MarketName         string             `json:"marketName"`
	ProofPhotoURL      string             `json:"proofPhotoURL"`
	Location           Location           `json:"location"`
	Notes              string             `json:"notes"`
	ProofCheck         ProofCheck         `json:"ocrValidation"`
	Verified           bool               `json:"verified"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerificationReason string             `json:"verificationReason,omitempty"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty"`
	Upvotes            int                `json:"upvotes"`
	Downvotes          int                `json:"downvotes"`
	ReportCount        int                `json:"reportCount"`
	Timestamp          time.Time          `json:"timestamp"`
	IsActive           bool               `json:"isActive"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// CreatePriceRequest is the body of POST /api/prices/add.
type CreatePriceRequest struct {
	VendorID      string    `json:"vendorId" validate:"required"`
	Item          string    `json:"item" validate:"required"`
	Price         float64   `json:"price" validate:"gt=0"`
	Unit          string    `json:"unit"`
	MarketName    string    `json:"marketName"`
	ProofPhotoURL string    `json:"proofPhotoURL" validate:"required,url"`
	Location      *Location `json:"location"`
	Notes         string    `json:"notes"`
}

// VerifyPriceRequest accepts or rejects a price report.
type VerifyPriceRequest struct {
	Verified *bool  `json:"verified" validate:"required"`
	Reason   string `json:"reason"`
}

// VotePriceRequest is the body of POST /api/prices/{id}/vote.
type VotePriceRequest struct {
	Vote     Vote   `json:"vote" validate:"required,oneof=up down"`
	VendorID string `json:"vendorId"`
}

// PriceFilter narrows and orders a price listing. A nil Verified matches
// both verified and unverified reports.
type PriceFilter struct {
	Item     string
	City     string
	VendorID string
	Verified *bool
	Limit    int
	SortBy   string
	Order    string
}

// PriceList is the result of listing price reports.
type PriceList struct {
	Count        int                     `json:"count"`
	Prices       []PriceEntry            `json:"prices"`
	PricesByItem map[string][]PriceEntry `json:"pricesByItem"`
	Timestamp    time.Time               `json:"timestamp"`
}

// TrendDirection summarizes how an item's verified price moved.
type TrendDirection struct {
	IsIncreasing  bool    `json:"isIncreasing"`
	PercentChange float64 `json:"percentChange"`
}

// PriceTrends are statistics over an item's verified prices in a window.
type PriceTrends struct {
	Item         string         `json:"item"`
	Period       string         `json:"period"`
	Count        int            `json:"count"`
	AveragePrice float64        `json:"averagePrice"`
	MinPrice     float64        `json:"minPrice"`
	MaxPrice     float64        `json:"maxPrice"`
	Prices       []PriceEntry   `json:"prices"`
	Trends       TrendDirection `json:"trends"`
}

// VoteTally is a price report's vote count after a vote.
type VoteTally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
