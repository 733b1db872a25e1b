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

const defaultRemovalReason = "Removed by vendor"

var surplusSortFields = map[string]bool{
	"createdAt":       true,
	"expiryDate":      true,
	"quantity":        true,
	"originalPrice":   true,
	"discountedPrice": true,
	"savings":         true,
}

// SurplusService runs the surplus listing lifecycle:
// available → claimed → completed, and available → removed.
type SurplusService struct {
	store   *repository.Store[model.SurplusListing]
	vendors VendorLookup
	notify  notifier
	now     Clock
}

// NewSurplusService constructs a SurplusService.
func NewSurplusService(
	store *repository.Store[model.SurplusListing],
	vendors VendorLookup,
	pub events.Publisher,
	now Clock,
) *SurplusService {
	return &SurplusService{store: store, vendors: vendors, notify: notifier{pub: pub}, now: now}
}

// Create lists surplus stock. Price, savings and priority are derived once
// here; stock close to expiry is forced to urgent.
func (s *SurplusService) Create(ctx context.Context, req model.CreateSurplusRequest) (*model.SurplusListing, error) {
	req.Item = strings.TrimSpace(req.Item)
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if req.DiscountedPrice != nil && *req.DiscountedPrice > req.OriginalPrice {
		return nil, invalid("discountedPrice cannot exceed originalPrice")
	}

	vendor, err := s.vendors.Get(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	now := stamp(s.now())
	expiry := stampPtr(req.ExpiryDate)
	price, savings := scoring.DiscountedPrice(req.OriginalPrice, req.DiscountedPrice)

	condition := req.Condition
	if condition == "" {
		condition = model.ConditionGood
	}
	priority, condition := scoring.SurplusPriority(condition, expiry, now)

	location := vendor.Location
	if req.Location != nil {
		location = *req.Location
	}

	sl := model.SurplusListing{
		ID:              uuid.NewString(),
		VendorID:        vendor.ID,
		VendorName:      vendor.Name,
		VendorShop:      vendor.ShopName,
		VendorContact:   vendor.Phone,
		Item:            req.Item,
		Quantity:        req.Quantity,
		Unit:            orDefault(req.Unit, model.DefaultUnit),
		OriginalPrice:   req.OriginalPrice,
		DiscountedPrice: price,
		Savings:         savings,
		ExpiryDate:      expiry,
		Condition:       condition,
		Description:     req.Description,
		PhotoURL:        req.PhotoURL,
		Location:        location,
		Status:          model.SurplusAvailable,
		Priority:        priority,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Put(ctx, sl.ID, &sl); err != nil {
		return nil, storageErr("surplus listing", sl.ID, err)
	}

	log.Info().
		Str("surplusId", sl.ID).
		Str("vendorId", sl.VendorID).
		Str("priority", string(sl.Priority)).
		Msg("surplus listing created")
	s.notify.emit(ctx, events.New(events.SurplusCreated, sl.ID, sl.VendorID, now, sl))

	return &sl, nil
}

// Get returns one listing with its read-time shelf life.
func (s *SurplusService) Get(ctx context.Context, id string) (*model.SurplusView, error) {
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := surplusView(*sl, stamp(s.now()))
	return &view, nil
}

// List returns matching listings ordered by f.SortBy, also grouped by priority.
func (s *SurplusService) List(ctx context.Context, f model.SurplusFilter) (*model.SurplusList, error) {
	orderBy, err := ordering(orDefault(f.SortBy, "createdAt"), f.Order, surplusSortFields)
	if err != nil {
		return nil, err
	}

	q := repository.Query{OrderBy: orderBy, Limit: listLimit(f.Limit)}
	switch f.Status {
	case "":
		q.Filters = append(q.Filters, repository.Eq("status", model.SurplusAvailable))
	case model.SurplusAnyStatus:
	default:
		q.Filters = append(q.Filters, repository.Eq("status", f.Status))
	}
	if f.Item != "" {
		q.Filters = append(q.Filters, repository.Prefix("item", f.Item))
	}
	if f.City != "" {
		q.Filters = append(q.Filters, repository.Eq("location.city", f.City))
	}
	if f.VendorID != "" {
		q.Filters = append(q.Filters, repository.Eq("vendorId", f.VendorID))
	}
	if f.Priority != "" {
		q.Filters = append(q.Filters, repository.Eq("priority", f.Priority))
	}
	if f.Condition != "" {
		q.Filters = append(q.Filters, repository.Eq("condition", f.Condition))
	}

	found, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list surplus: %w", ErrUnavailable, err)
	}

	now := stamp(s.now())
	list := &model.SurplusList{
		Count:   len(found),
		Surplus: make([]model.SurplusView, 0, len(found)),
		Categorized: model.SurplusBuckets{
			Urgent: []model.SurplusView{},
			High:   []model.SurplusView{},
			Normal: []model.SurplusView{},
		},
		Timestamp: now,
	}
	for _, sl := range found {
		v := surplusView(sl, now)
		list.Surplus = append(list.Surplus, v)

		switch sl.Priority {
		case model.PriorityUrgent:
			list.Categorized.Urgent = append(list.Categorized.Urgent, v)
		case model.PriorityHigh:
			list.Categorized.High = append(list.Categorized.High, v)
		default:
			list.Categorized.Normal = append(list.Categorized.Normal, v)
		}
	}
	list.Summary = model.SurplusSummary{
		Urgent: len(list.Categorized.Urgent),
		High:   len(list.Categorized.High),
		Normal: len(list.Categorized.Normal),
	}
	return list, nil
}

// Claim reserves an available listing for another vendor and returns both
// parties' contact details.
func (s *SurplusService) Claim(ctx context.Context, id string, req model.ClaimRequest) (*model.ClaimReceipt, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sl.Status != model.SurplusAvailable {
		return nil, fmt.Errorf("%w: surplus listing %s is %s", ErrInvalidState, id, sl.Status)
	}

	claimer, err := s.vendors.Get(ctx, req.ClaimedByVendorID)
	if err != nil {
		return nil, err
	}

	now := stamp(s.now())
	claimedBy := model.ClaimedBy{
		VendorID:      claimer.ID,
		VendorName:    claimer.Name,
		VendorShop:    claimer.ShopName,
		VendorContact: claimer.Phone,
	}

	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("status", model.SurplusAvailable)},
		repository.Fields{
			"status":             model.SurplusClaimed,
			"claimedBy":          claimedBy,
			"claimedAt":          now,
			"claimMessage":       req.Message,
			"expectedPickupTime": stampPtr(req.ExpectedPickupTime),
			"updatedAt":          now,
		})
	if err != nil {
		return nil, storageErr("surplus listing", id, err)
	}

	log.Info().Str("surplusId", id).Str("claimedBy", claimer.ID).Msg("surplus claimed")
	s.notify.emit(ctx, events.New(events.SurplusClaimed, id, sl.VendorID, now, claimedBy))

	return &model.ClaimReceipt{
		ClaimedBy:      claimedBy,
		OriginalVendor: model.ContactCard{Name: sl.VendorName, Contact: sl.VendorContact},
		Claimer:        model.ContactCard{Name: claimer.Name, Contact: claimer.Phone},
	}, nil
}

// Complete closes a claimed exchange. Either the lister or the claimer may
// call it.
func (s *SurplusService) Complete(ctx context.Context, id string, req model.CompleteRequest) (*model.SurplusListing, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	by := req.CompletedByVendorID
	if by != sl.VendorID && (sl.ClaimedBy == nil || by != sl.ClaimedBy.VendorID) {
		return nil, fmt.Errorf("%w: only the listing vendor or the claimer can complete surplus listing %s", ErrForbidden, id)
	}
	if sl.Status != model.SurplusClaimed {
		return nil, fmt.Errorf("%w: surplus listing %s is %s, not claimed", ErrInvalidState, id, sl.Status)
	}

	now := stamp(s.now())
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("status", model.SurplusClaimed)},
		repository.Fields{
			"status":      model.SurplusCompleted,
			"completedAt": now,
			"completedBy": by,
			"rating":      req.Rating,
			"feedback":    req.Feedback,
			"updatedAt":   now,
		})
	if err != nil {
		return nil, storageErr("surplus listing", id, err)
	}

	sl.Status = model.SurplusCompleted
	sl.CompletedAt = &now
	sl.CompletedBy = by
	sl.Rating = req.Rating
	sl.Feedback = req.Feedback
	sl.UpdatedAt = now

	log.Info().Str("surplusId", id).Str("completedBy", by).Msg("surplus exchange completed")
	s.notify.emit(ctx, events.New(events.SurplusCompleted, id, sl.VendorID, now, map[string]any{
		"completedBy": by,
		"rating":      req.Rating,
	}))

	return sl, nil
}

// Remove soft-deletes an unclaimed listing. The record stays readable by id.
func (s *SurplusService) Remove(ctx context.Context, id string, req model.RemoveRequest) (*model.SurplusListing, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.VendorID != sl.VendorID {
		return nil, fmt.Errorf("%w: only the listing vendor can remove surplus listing %s", ErrForbidden, id)
	}
	if sl.Status != model.SurplusAvailable {
		return nil, fmt.Errorf("%w: surplus listing %s is %s", ErrInvalidState, id, sl.Status)
	}

	now := stamp(s.now())
	reason := orDefault(req.Reason, defaultRemovalReason)
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("status", model.SurplusAvailable)},
		repository.Fields{
			"isActive":      false,
			"status":        model.SurplusRemoved,
			"removedAt":     now,
			"removalReason": reason,
			"updatedAt":     now,
		})
	if err != nil {
		return nil, storageErr("surplus listing", id, err)
	}

	sl.IsActive = false
	sl.Status = model.SurplusRemoved
	sl.RemovedAt = &now
	sl.RemovalReason = reason
	sl.UpdatedAt = now

	log.Info().Str("surplusId", id).Str("reason", reason).Msg("surplus listing removed")
	s.notify.emit(ctx, events.New(events.SurplusRemoved, id, sl.VendorID, now, map[string]string{"reason": reason}))

	return sl, nil
}

func (s *SurplusService) load(ctx context.Context, id string) (*model.SurplusListing, error) {
	if id == "" {
		return nil, invalid("surplus listing id is required")
	}
	sl, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storageErr("surplus listing", id, err)
	}
	return sl, nil
}

func surplusView(sl model.SurplusListing, now time.Time) model.SurplusView {
	v := model.SurplusView{SurplusListing: sl}
	if sl.ExpiryDate != nil {
		shelf := scoring.Shelf(*sl.ExpiryDate, now)
		v.TimeRemaining = &shelf
	}
	return v
}
