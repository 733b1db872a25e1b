package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/events"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/scoring"
)

const defaultCancellationReason = "Cancelled by requester"

var emergencySortFields = map[string]bool{
	"priority":      true,
	"createdAt":     true,
	"expiresAt":     true,
	"neededBy":      true,
	"quantity":      true,
	"responseCount": true,
}

// EmergencyService runs the emergency request lifecycle:
// active → partial | fulfilled | cancelled.
type EmergencyService struct {
	store   *repository.Store[model.EmergencyRequest]
	vendors VendorLookup
	notify  notifier
	now     Clock
}

// NewEmergencyService constructs an EmergencyService.
func NewEmergencyService(
	store *repository.Store[model.EmergencyRequest],
	vendors VendorLookup,
	pub events.Publisher,
	now Clock,
) *EmergencyService {
	return &EmergencyService{store: store, vendors: vendors, notify: notifier{pub: pub}, now: now}
}

// Create broadcasts a new emergency request on behalf of req.VendorID.
// Priority and expiry are fixed here and never recomputed.
func (s *EmergencyService) Create(ctx context.Context, req model.CreateEmergencyRequest) (*model.EmergencyCreated, error) {
	req.Item = strings.TrimSpace(req.Item)
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	vendor, err := s.vendors.Get(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	now := stamp(s.now())
	neededBy := stampPtr(req.NeededBy)
	expireHours := scoring.AutoExpireHours(req.UrgencyLevel)

	location := vendor.Location
	if req.Location != nil {
		location = *req.Location
	}

	er := model.EmergencyRequest{
		ID:            uuid.NewString(),
		VendorID:      vendor.ID,
		VendorName:    vendor.Name,
		VendorShop:    vendor.ShopName,
		VendorContact: vendor.Phone,
		Item:          req.Item,
		Quantity:      req.Quantity,
		Unit:          orDefault(req.Unit, model.DefaultUnit),
		MaxPrice:      req.MaxPrice,
		UrgencyLevel:  req.UrgencyLevel,
		NeededBy:      neededBy,
		Reason:        req.Reason,
		Message:       req.Message,
		Location:      location,
		ContactInfo:   contactFor(vendor, req.ContactInfo),
		Status:        model.EmergencyActive,
		Priority:      scoring.Priority(req.UrgencyLevel, neededBy, now),
		Responses:     []model.Response{},
		ExpiresAt:     now.Add(hours(expireHours)),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Put(ctx, er.ID, &er); err != nil {
		return nil, storageErr("emergency request", er.ID, err)
	}

	log.Info().
		Str("emergencyId", er.ID).
		Str("vendorId", er.VendorID).
		Str("urgency", string(er.UrgencyLevel)).
		Int("priority", er.Priority).
		Msg("emergency request created")
	s.notify.emit(ctx, events.New(events.EmergencyCreated, er.ID, er.VendorID, now, er))

	return &model.EmergencyCreated{
		Emergency: er,
		BroadcastInfo: model.BroadcastInfo{
			Priority:       er.Priority,
			ExpiresIn:      fmt.Sprintf("%d hours", expireHours),
			EstimatedReach: scoring.EstimatedReach(location.City, er.UrgencyLevel),
		},
	}, nil
}

// contactFor fills the requester's contact details from their vendor profile
// wherever the payload leaves them blank.
func contactFor(v *model.Vendor, given *model.ContactInfo) model.ContactInfo {
	c := model.ContactInfo{}
	if given != nil {
		c = *given
	}
	c.Phone = orDefault(c.Phone, v.Phone)
	c.Email = orDefault(c.Email, v.Email)
	c.WhatsApp = orDefault(c.WhatsApp, v.Phone)
	c.PreferredContact = orDefault(c.PreferredContact, "phone")
	return c
}

// Get returns one request with its read-time countdowns.
func (s *EmergencyService) Get(ctx context.Context, id string) (*model.EmergencyView, error) {
	er, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(*er, stamp(s.now()))
	return &view, nil
}

// List returns matching requests ordered by f.SortBy, also grouped by urgency.
func (s *EmergencyService) List(ctx context.Context, f model.EmergencyFilter) (*model.EmergencyList, error) {
	orderBy, err := ordering(orDefault(f.SortBy, "priority"), f.Order, emergencySortFields)
	if err != nil {
		return nil, err
	}

	q := repository.Query{OrderBy: orderBy, Limit: listLimit(f.Limit)}
	switch f.Status {
	case "":
		q.Filters = append(q.Filters, repository.Eq("status", model.EmergencyActive))
	case model.EmergencyAnyStatus:
	default:
		q.Filters = append(q.Filters, repository.Eq("status", f.Status))
	}
	if f.Item != "" {
		q.Filters = append(q.Filters, repository.Prefix("item", f.Item))
	}
	if f.City != "" {
		q.Filters = append(q.Filters, repository.Eq("location.city", f.City))
	}
	if f.UrgencyLevel != "" {
		q.Filters = append(q.Filters, repository.Eq("urgencyLevel", f.UrgencyLevel))
	}
	if f.VendorID != "" {
		q.Filters = append(q.Filters, repository.Eq("vendorId", f.VendorID))
	}

	found, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list emergency requests: %w", ErrUnavailable, err)
	}

	now := stamp(s.now())
	list := &model.EmergencyList{
		Count:    len(found),
		Requests: make([]model.EmergencyView, 0, len(found)),
		Categorized: model.EmergencyBuckets{
			Critical: []model.EmergencyView{},
			High:     []model.EmergencyView{},
			Medium:   []model.EmergencyView{},
			Low:      []model.EmergencyView{},
		},
		Timestamp: now,
	}
	for _, er := range found {
		v := s.view(er, now)
		list.Requests = append(list.Requests, v)

		switch er.UrgencyLevel {
		case model.UrgencyCritical:
			list.Categorized.Critical = append(list.Categorized.Critical, v)
		case model.UrgencyHigh:
			list.Categorized.High = append(list.Categorized.High, v)
		case model.UrgencyMedium:
			list.Categorized.Medium = append(list.Categorized.Medium, v)
		default:
			list.Categorized.Low = append(list.Categorized.Low, v)
		}
	}
	list.Summary = model.EmergencySummary{
		Critical: len(list.Categorized.Critical),
		High:     len(list.Categorized.High),
		Medium:   len(list.Categorized.Medium),
		Low:      len(list.Categorized.Low),
	}
	return list, nil
}

// Respond appends a pending offer from another vendor. Only active requests
// accept responses.
func (s *EmergencyService) Respond(ctx context.Context, id string, req model.RespondRequest) (*model.ResponseReceipt, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	er, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if er.Status != model.EmergencyActive {
		return nil, fmt.Errorf("%w: emergency request %s is %s and no longer accepts responses", ErrInvalidState, id, er.Status)
	}

	responder, err := s.vendors.Get(ctx, req.ResponderVendorID)
	if err != nil {
		return nil, err
	}

	now := stamp(s.now())
	resp := model.Response{
		ID:                uuid.NewString(),
		VendorID:          responder.ID,
		VendorName:        responder.Name,
		VendorShop:        responder.ShopName,
		VendorContact:     responder.Phone,
		AvailableQuantity: req.AvailableQuantity,
		PricePerUnit:      req.PricePerUnit,
		AvailableBy:       stampPtr(req.AvailableBy),
		Message:           req.Message,
		CanPartialFulfill: req.CanPartialFulfill,
		Status:            model.ResponsePending,
		RespondedAt:       now,
	}

	responses := make([]model.Response, 0, len(er.Responses)+1)
	responses = append(responses, er.Responses...)
	responses = append(responses, resp)

	// Guarding on responseCount as well as status keeps two concurrent
	// responders from overwriting each other's append.
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{
			repository.Eq("status", model.EmergencyActive),
			repository.Eq("responseCount", er.ResponseCount),
		},
		repository.Fields{
			"responses":     responses,
			"responseCount": len(responses),
			"updatedAt":     now,
		})
	if err != nil {
		return nil, storageErr("emergency request", id, err)
	}

	log.Info().
		Str("emergencyId", id).
		Str("responderId", responder.ID).
		Int("responseCount", len(responses)).
		Msg("emergency response added")
	s.notify.emit(ctx, events.New(events.EmergencyResponded, id, responder.ID, now, resp))

	return &model.ResponseReceipt{
		Response: resp,
		Requester: model.ContactCard{
			Name:             er.VendorName,
			Contact:          er.VendorContact,
			PreferredContact: er.ContactInfo.PreferredContact,
		},
	}, nil
}

// Fulfill records who supplied the request. Only the requester may call it;
// a partial fulfillment can later be upgraded to a full one.
func (s *EmergencyService) Fulfill(ctx context.Context, id string, req model.FulfillRequest) (*model.EmergencyRequest, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	er, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterVendorID != er.VendorID {
		return nil, fmt.Errorf("%w: only the requesting vendor can fulfill emergency request %s", ErrForbidden, id)
	}
	if er.Status != model.EmergencyActive && er.Status != model.EmergencyPartial {
		return nil, fmt.Errorf("%w: emergency request %s is already %s", ErrInvalidState, id, er.Status)
	}
	if req.ResponseID != "" && !hasResponse(er.Responses, req.ResponseID) {
		return nil, invalid("response %s does not belong to emergency request %s", req.ResponseID, id)
	}

	status := model.EmergencyFulfilled
	if req.IsPartialFulfillment {
		status = model.EmergencyPartial
	}
	now := stamp(s.now())
	fulfilled := &model.Fulfillment{
		VendorID:          req.FulfilledByVendorID,
		QuantityFulfilled: req.QuantityFulfilled,
		FinalPrice:        req.FinalPrice,
		ResponseID:        req.ResponseID,
	}

	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("status", er.Status)},
		repository.Fields{
			"status":           status,
			"fulfilledBy":      fulfilled,
			"fulfilledAt":      now,
			"fulfillmentNotes": req.Notes,
			"updatedAt":        now,
		})
	if err != nil {
		return nil, storageErr("emergency request", id, err)
	}

	er.Status = status
	er.FulfilledBy = fulfilled
	er.FulfilledAt = &now
	er.FulfillmentNotes = req.Notes
	er.UpdatedAt = now

	log.Info().
		Str("emergencyId", id).
		Str("fulfilledBy", fulfilled.VendorID).
		Str("status", string(status)).
		Msg("emergency request fulfilled")
	s.notify.emit(ctx, events.New(events.EmergencyFulfilled, id, er.VendorID, now, fulfilled))

	return er, nil
}

// Cancel withdraws an active request. Only the requester may call it.
func (s *EmergencyService) Cancel(ctx context.Context, id string, req model.CancelRequest) (*model.EmergencyRequest, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	er, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.VendorID != er.VendorID {
		return nil, fmt.Errorf("%w: only the requesting vendor can cancel emergency request %s", ErrForbidden, id)
	}
	if er.Status != model.EmergencyActive {
		return nil, fmt.Errorf("%w: emergency request %s is already %s", ErrInvalidState, id, er.Status)
	}

	now := stamp(s.now())
	reason := orDefault(req.Reason, defaultCancellationReason)
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("status", model.EmergencyActive)},
		repository.Fields{
			"status":             model.EmergencyCancelled,
			"cancelledAt":        now,
			"cancellationReason": reason,
			"updatedAt":          now,
		})
	if err != nil {
		return nil, storageErr("emergency request", id, err)
	}

	er.Status = model.EmergencyCancelled
	er.CancelledAt = &now
	er.CancellationReason = reason
	er.UpdatedAt = now

	log.Info().Str("emergencyId", id).Str("reason", reason).Msg("emergency request cancelled")
	s.notify.emit(ctx, events.New(events.EmergencyCancelled, id, er.VendorID, now, map[string]string{"reason": reason}))

	return er, nil
}

func (s *EmergencyService) load(ctx context.Context, id string) (*model.EmergencyRequest, error) {
	if id == "" {
		return nil, invalid("emergency request id is required")
	}
	er, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storageErr("emergency request", id, err)
	}
	return er, nil
}

// view decorates er with countdowns. A request left active past expiresAt
// keeps its stored status; only expiryInfo reports it as expired.
func (s *EmergencyService) view(er model.EmergencyRequest, now time.Time) model.EmergencyView {
	v := model.EmergencyView{EmergencyRequest: er}
	if er.NeededBy != nil {
		tr := scoring.Deadline(*er.NeededBy, now)
		v.TimeRemaining = &tr
	}
	if !er.ExpiresAt.IsZero() {
		info := scoring.Expiry(er.ExpiresAt, now)
		v.ExpiryInfo = &info
	}
	return v
}

func hasResponse(responses []model.Response, id string) bool {
	for _, r := range responses {
		if r.ID == id {
			return true
		}
	}
	return false
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
