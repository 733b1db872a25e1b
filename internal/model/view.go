package model

import "time"

// TimeRemaining is the read-time distance to an emergency request's deadline.
type TimeRemaining struct {
	Hours   int  `json:"hours"`
	Days    int  `json:"days"`
	Overdue bool `json:"overdue"`
}

// ExpiryInfo is the read-time distance to an emergency request's auto-expiry.
type ExpiryInfo struct {
	Hours   int  `json:"hours"`
	Expired bool `json:"expired"`
}

// ShelfLife is the read-time distance to a surplus listing's expiry date.
type ShelfLife struct {
	Hours   int  `json:"hours"`
	Days    int  `json:"days"`
	Expired bool `json:"expired"`
}

// EmergencyView is an emergency request decorated with read-time fields.
// The decorations are never persisted.
type EmergencyView struct {
	EmergencyRequest
	TimeRemaining *TimeRemaining `json:"timeRemaining,omitempty"`
	ExpiryInfo    *ExpiryInfo    `json:"expiryInfo,omitempty"`
}

// EmergencyBuckets groups listed requests by urgency.
type EmergencyBuckets struct {
	Critical []EmergencyView `json:"critical"`
	High     []EmergencyView `json:"high"`
	Medium   []EmergencyView `json:"medium"`
	Low      []EmergencyView `json:"low"`
}

// EmergencySummary counts listed requests per urgency.
type EmergencySummary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// EmergencyList is the result of listing emergency requests.
type EmergencyList struct {
	Count       int              `json:"count"`
	Requests    []EmergencyView  `json:"emergencyRequests"`
	Categorized EmergencyBuckets `json:"categorized"`
	Summary     EmergencySummary `json:"summary"`
	Timestamp   time.Time        `json:"timestamp"`
}

// BroadcastInfo is advisory reach information returned on creation.
type BroadcastInfo struct {
	Priority       int    `json:"priority"`
	ExpiresIn      string `json:"expiresIn"`
	EstimatedReach int    `json:"estimatedReach"`
}

// EmergencyCreated is returned when an emergency request is broadcast.
type EmergencyCreated struct {
	Emergency     EmergencyRequest `json:"emergency"`
	BroadcastInfo BroadcastInfo    `json:"broadcastInfo"`
}

// ContactCard is how one party of an exchange reaches the other.
type ContactCard struct {
	Name             string `json:"name"`
	Contact          string `json:"contact"`
	PreferredContact string `json:"preferredContact,omitempty"`
}

// ResponseReceipt is returned to a responding vendor.
type ResponseReceipt struct {
	Response  Response    `json:"response"`
	Requester ContactCard `json:"requester"`
}

// SurplusView is a surplus listing decorated with read-time fields.
type SurplusView struct {
	SurplusListing
	TimeRemaining *ShelfLife `json:"timeRemaining,omitempty"`
}

// SurplusBuckets groups listed surplus by priority.
type SurplusBuckets struct {
	Urgent []SurplusView `json:"urgent"`
	High   []SurplusView `json:"high"`
	Normal []SurplusView `json:"normal"`
}

// SurplusSummary counts listed surplus per priority.
type SurplusSummary struct {
	Urgent int `json:"urgent"`
	High   int `json:"high"`
	Normal int `json:"normal"`
}

// SurplusList is the result of listing surplus stock.
type SurplusList struct {
	Count       int            `json:"count"`
	Surplus     []SurplusView  `json:"surplus"`
	Categorized SurplusBuckets `json:"categorized"`
	Summary     SurplusSummary `json:"summary"`
	Timestamp   time.Time      `json:"timestamp"`
}

// ClaimReceipt is returned when surplus is claimed, with both parties' contacts.
type ClaimReceipt struct {
	ClaimedBy      ClaimedBy   `json:"claimedBy"`
	OriginalVendor ContactCard `json:"originalVendor"`
	Claimer        ContactCard `json:"claimer"`
}
