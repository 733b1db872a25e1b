package model

import "time"

// RegisterVendorRequest is the payload for registering a vendor.
type RegisterVendorRequest struct {
	Name         string    `json:"name" validate:"required"`
	ShopName     string    `json:"shopName" validate:"required"`
	Location     *Location `json:"location" validate:"required"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email" validate:"omitempty,email"`
	RawMaterials []string  `json:"rawMaterials"`
}

// UpdateVendorRequest carries the profile fields a vendor may change.
// Nil fields are left untouched.
type UpdateVendorRequest struct {
	Name         *string   `json:"name" validate:"omitempty,min=1"`
	ShopName     *string   `json:"shopName" validate:"omitempty,min=1"`
	Phone        *string   `json:"phone"`
	Email        *string   `json:"email" validate:"omitempty,email"`
	Location     *Location `json:"location"`
	RawMaterials []string  `json:"rawMaterials"`
}

// CreateEmergencyRequest is the payload for broadcasting an emergency request.
type CreateEmergencyRequest struct {
	VendorID     string       `json:"vendorId" validate:"required"`
	Item         string       `json:"item" validate:"required"`
	Quantity     float64      `json:"quantity" validate:"gt=0"`
	Unit         string       `json:"unit"`
	MaxPrice     *float64     `json:"maxPrice" validate:"omitempty,gt=0"`
	UrgencyLevel UrgencyLevel `json:"urgencyLevel" validate:"required,oneof=low medium high critical"`
	NeededBy     *time.Time   `json:"neededBy"`
	Reason       string       `json:"reason"`
	Message      string       `json:"message"`
	Location     *Location    `json:"location"`
	ContactInfo  *ContactInfo `json:"contactInfo"`
}

// RespondRequest is a vendor's offer against an emergency request.
type RespondRequest struct {
	ResponderVendorID string     `json:"responderVendorId" validate:"required"`
	AvailableQuantity float64    `json:"availableQuantity" validate:"gt=0"`
	PricePerUnit      *float64   `json:"pricePerUnit" validate:"omitempty,gt=0"`
	AvailableBy       *time.Time `json:"availableBy"`
	Message           string     `json:"message"`
	CanPartialFulfill bool       `json:"canPartialFulfill"`
}

// FulfillRequest marks an emergency request fully or partially supplied.
type FulfillRequest struct {
	RequesterVendorID    string   `json:"requesterVendorId" validate:"required"`
	FulfilledByVendorID  string   `json:"fulfilledByVendorId" validate:"required"`
	QuantityFulfilled    float64  `json:"quantityFulfilled" validate:"gt=0"`
	FinalPrice           *float64 `json:"finalPrice" validate:"omitempty,gte=0"`
	ResponseID           string   `json:"responseId"`
	IsPartialFulfillment bool     `json:"isPartialFulfillment"`
	Notes                string   `json:"notes"`
}

// CancelRequest withdraws an emergency request.
type CancelRequest struct {
	VendorID string `json:"vendorId" validate:"required"`
	Reason   string `json:"reason"`
}

// CreateSurplusRequest is the payload for listing surplus stock.
type CreateSurplusRequest struct {
	VendorID        string     `json:"vendorId" validate:"required"`
	Item            string     `json:"item" validate:"required"`
	Quantity        float64    `json:"quantity" validate:"gt=0"`
	Unit            string     `json:"unit"`
	OriginalPrice   float64    `json:"originalPrice" validate:"gt=0"`
	DiscountedPrice *float64   `json:"discountedPrice" validate:"omitempty,gt=0"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	Condition       Condition  `json:"condition" validate:"omitempty,oneof=good fair needs_quick_sale"`
	Description     string     `json:"description"`
	PhotoURL        string     `json:"photoURL" validate:"omitempty,url"`
	Location        *Location  `json:"location"`
}

// ClaimRequest reserves a surplus listing for another vendor.
type ClaimRequest struct {
	ClaimedByVendorID  string     `json:"claimedByVendorId" validate:"required"`
	Message            string     `json:"message"`
	ExpectedPickupTime *time.Time `json:"expectedPickupTime"`
}

// CompleteRequest closes a claimed surplus exchange.
type CompleteRequest struct {
	CompletedByVendorID string `json:"completedByVendorId" validate:"required"`
	Rating              *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback            string `json:"feedback"`
}

// RemoveRequest withdraws a surplus listing.
type RemoveRequest struct {
	VendorID string `json:"vendorId" validate:"required"`
	Reason   string `json:"reason"`
}

// VendorFilter narrows a vendor listing.
type VendorFilter struct {
	City   string
	Active *bool
	Limit  int
}

// EmergencyFilter narrows and orders an emergency request listing.
// An empty Status lists active requests; EmergencyAnyStatus lists all.
type EmergencyFilter struct {
	Item         string
	City         string
	UrgencyLevel UrgencyLevel
	Status       EmergencyStatus
	VendorID     string
	Limit        int
	SortBy       string
	Order        string
}

// SurplusFilter narrows and orders a surplus listing.
// An empty Status lists available stock; SurplusAnyStatus lists all.
type SurplusFilter struct {
	Item      string
	City      string
	VendorID  string
	Status    SurplusStatus
	Priority  SurplusPriority
	Condition Condition
	Limit     int
	SortBy    string
	Order     string
}
