// Package model defines the core domain types for the vendor marketplace.
package model

import "time"

// UrgencyLevel grades how badly an emergency request needs supply.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// EmergencyStatus is the lifecycle state of an emergency request.
type EmergencyStatus string

const (
	EmergencyActive    EmergencyStatus = "active"
	EmergencyPartial   EmergencyStatus = "partial"
	EmergencyFulfilled EmergencyStatus = "fulfilled"
	EmergencyCancelled EmergencyStatus = "cancelled"
	// EmergencyExpired is never written; it only describes a request whose
	// expiresAt has passed.
	EmergencyExpired EmergencyStatus = "expired"

	// EmergencyAnyStatus lifts the status filter when listing.
	EmergencyAnyStatus EmergencyStatus = "all"
)

// ResponseStatus is the state of a single vendor response.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAccepted ResponseStatus = "accepted"
	ResponseRejected ResponseStatus = "rejected"
)

// SurplusStatus is the lifecycle state of a surplus listing.
type SurplusStatus string

const (
	SurplusAvailable SurplusStatus = "available"
	SurplusClaimed   SurplusStatus = "claimed"
	SurplusCompleted SurplusStatus = "completed"
	SurplusRemoved   SurplusStatus = "removed"

	// SurplusAnyStatus lifts the status filter when listing.
	SurplusAnyStatus SurplusStatus = "all"
)

// SurplusPriority buckets surplus listings for display.
type SurplusPriority string

const (
	PriorityUrgent SurplusPriority = "urgent"
	PriorityHigh   SurplusPriority = "high"
	PriorityNormal SurplusPriority = "normal"
)

// Condition describes the state of surplus stock.
type Condition string

const (
	ConditionGood           Condition = "good"
	ConditionFair           Condition = "fair"
	ConditionNeedsQuickSale Condition = "needs_quick_sale"
)

// DefaultUnit is used when a payload omits the unit of measure.
const DefaultUnit = "kg"

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a postal location with optional coordinates.
type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Pincode     string       `json:"pincode,omitempty"`
	Coordinates *Coordinates `json:"coordinates"`
}

// Vendor is a registered street vendor or shop owner.
type Vendor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ShopName     string    `json:"shopName"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Location     Location  `json:"location"`
	RawMaterials []string  `json:"rawMaterials"`
	Rating       float64   `json:"rating"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContactInfo tells responders how to reach a requester.
type ContactInfo struct {
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	WhatsApp         string `json:"whatsapp"`
	PreferredContact string `json:"preferredContact"`
}

// Response is a vendor's offer to supply an emergency request.
type Response struct {
	ID                string         `json:"id"`
	VendorID          string         `json:"vendorId"`
	VendorName        string         `json:"vendorName"`
	VendorShop        string         `json:"vendorShop"`
	VendorContact     string         `json:"vendorContact"`
	AvailableQuantity float64        `json:"availableQuantity"`
	PricePerUnit      *float64       `json:"pricePerUnit"`
	AvailableBy       *time.Time     `json:"availableBy"`
	Message           string         `json:"message"`
	CanPartialFulfill bool           `json:"canPartialFulfill"`
	Status            ResponseStatus `json:"status"`
	RespondedAt       time.Time      `json:"respondedAt"`
}

// Fulfillment records who supplied an emergency request and on what terms.
type Fulfillment struct {
	VendorID          string   `json:"vendorId"`
	QuantityFulfilled float64  `json:"quantityFulfilled"`
	FinalPrice        *float64 `json:"finalPrice"`
	ResponseID        string   `json:"responseId,omitempty"`
}

// EmergencyRequest is a vendor's urgent, broadcast need for supply.
type EmergencyRequest struct {
	ID                 string          `json:"id"`
	VendorID           string          `json:"vendorId"`
	VendorName         string          `json:"vendorName"`
	VendorShop         string          `json:"vendorShop"`
	VendorContact      string          `json:"vendorContact"`
	Item               string          `json:"item"`
	Quantity           float64         `json:"quantity"`
	Unit               string          `json:"unit"`
	MaxPrice           *float64        `json:"maxPrice"`
	UrgencyLevel       UrgencyLevel    `json:"urgencyLevel"`
	NeededBy           *time.Time      `json:"neededBy"`
	Reason             string          `json:"reason"`
	Message            string          `json:"message"`
	Location           Location        `json:"location"`
	ContactInfo        ContactInfo     `json:"contactInfo"`
	Status             EmergencyStatus `json:"status"`
	Priority           int             `json:"priority"`
	Responses          []Response      `json:"responses"`
	ResponseCount      int             `json:"responseCount"`
	FulfilledBy        *Fulfillment    `json:"fulfilledBy"`
	FulfilledAt        *time.Time      `json:"fulfilledAt"`
	FulfillmentNotes   string          `json:"fulfillmentNotes,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	ExpiresAt          time.Time       `json:"expiresAt"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ClaimedBy identifies the vendor that claimed a surplus listing.
type ClaimedBy struct {
	VendorID      string `json:"vendorId"`
	VendorName    string `json:"vendorName"`
	VendorShop    string `json:"vendorShop"`
	VendorContact string `json:"vendorContact"`
}

// SurplusListing is excess stock offered to other vendors at a discount.
type SurplusListing struct {
	ID                 string          `json:"id"`
	VendorID           string          `json:"vendorId"`
	VendorName         string          `json:"vendorName"`
	VendorShop         string          `json:"vendorShop"`
	VendorContact      string          `json:"vendorContact"`
	Item               string          `json:"item"`
	Quantity           float64         `json:"quantity"`
	Unit               string          `json:"unit"`
	OriginalPrice      float64         `json:"originalPrice"`
	DiscountedPrice    float64         `json:"discountedPrice"`
	Savings            float64         `json:"savings"`
	ExpiryDate         *time.Time      `json:"expiryDate"`
	Condition          Condition       `json:"condition"`
	Description        string          `json:"description"`
	PhotoURL           string          `json:"photoURL"`
	Location           Location        `json:"location"`
	Status             SurplusStatus   `json:"status"`
	Priority           SurplusPriority `json:"priority"`
	ClaimedBy          *ClaimedBy      `json:"claimedBy"`
	ClaimedAt          *time.Time      `json:"claimedAt"`
	ClaimMessage       string          `json:"claimMessage,omitempty"`
	ExpectedPickupTime *time.Time      `json:"expectedPickupTime,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CompletedBy        string          `json:"completedBy,omitempty"`
	Rating             *int            `json:"rating,omitempty"`
	Feedback           string          `json:"feedback,omitempty"`
	RemovedAt          *time.Time      `json:"removedAt,omitempty"`
	RemovalReason      string          `json:"removalReason,omitempty"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
