package service

import (
	"context"
	"errors"
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

const (
	defaultPriceListLimit = 100
	defaultTrendDays      = 30
	maxTrendDays          = 365
	voteAttempts          = 3
)

var priceSortFields = map[string]bool{
	"timestamp": true,
	"createdAt": true,
	"price":     true,
	"upvotes":   true,
	"downvotes": true,
}

// ProofValidator reads a proof photo and reports how well it backs the
// claimed item and price.
type ProofValidator interface {
	Check(ctx context.Context, photoURL, item string, price float64) (model.ProofCheck, error)
}

// ManualReview reads nothing from the photo, so every report waits for
// Verify.
type ManualReview struct{}

// Check returns a successful check with zero confidence.
func (ManualReview) Check(context.Context, string, string, float64) (model.ProofCheck, error) {
	return model.ProofCheck{Success: true}, nil
}

// PriceService records crowd-reported mandi prices. Reports whose proof check
// is confident enough are verified on arrival; the rest wait for Verify.
// Only verified reports feed Trends.
type PriceService struct {
	store   *repository.Store[model.PriceEntry]
	vendors VendorLookup
	proof   ProofValidator
	notify  notifier
	now     Clock
}

// NewPriceService constructs a PriceService.
func NewPriceService(
	store *repository.Store[model.PriceEntry],
	vendors VendorLookup,
	proof ProofValidator,
	pub events.Publisher,
	now Clock,
) *PriceService {
	return &PriceService{store: store, vendors: vendors, proof: proof, notify: notifier{pub: pub}, now: now}
}

// Create records a price report. A failing proof check leaves the report
// pending rather than failing the call.
func (s *PriceService) Create(ctx context.Context, req model.CreatePriceRequest) (*model.PriceEntry, error) {
	req.Item = strings.ToLower(strings.TrimSpace(req.Item))
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	vendor, err := s.vendors.Get(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	check, err := s.proof.Check(ctx, req.ProofPhotoURL, req.Item, req.Price)
	if err != nil {
		log.Warn().Err(err).Str("vendorId", vendor.ID).Str("item", req.Item).Msg("proof check failed")
		check = model.ProofCheck{Success: false, Error: "proof check failed"}
	}

	verified := scoring.AutoVerified(check)
	status := model.VerificationPending
	if verified {
		status = model.VerificationVerified
	}

	location := vendor.Location
	if req.Location != nil {
		location = *req.Location
	}

	now := stamp(s.now())
	p := model.PriceEntry{
		ID:                 uuid.NewString(),
		VendorID:           vendor.ID,
		VendorName:         vendor.Name,
		Item:               req.Item,
		Price:              req.Price,
		Unit:               orDefault(req.Unit, model.DefaultUnit),
		MarketName:         orDefault(req.MarketName, model.DefaultMarket),
		ProofPhotoURL:      req.ProofPhotoURL,
		Location:           location,
		Notes:              req.Notes,
		ProofCheck:         check,
		Verified:           verified,
		VerificationStatus: status,
		Timestamp:          now,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if verified {
		p.VerifiedAt = &now
	}

	if err := s.store.Put(ctx, p.ID, &p); err != nil {
		return nil, storageErr("price entry", p.ID, err)
	}

	log.Info().
		Str("priceId", p.ID).
		Str("item", p.Item).
		Float64("price", p.Price).
		Float64("confidence", check.Confidence).
		Bool("verified", verified).
		Msg("price reported")
	s.notify.emit(ctx, events.New(events.PriceReported, p.ID, p.VendorID, now, p))

	return &p, nil
}

// Get returns one price report.
func (s *PriceService) Get(ctx context.Context, id string) (*model.PriceEntry, error) {
	return s.load(ctx, id)
}

// List returns matching reports, newest first by default, also grouped by item.
func (s *PriceService) List(ctx context.Context, f model.PriceFilter) (*model.PriceList, error) {
	orderBy, err := ordering(orDefault(f.SortBy, "timestamp"), f.Order, priceSortFields)
	if err != nil {
		return nil, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPriceListLimit
	}
	q := repository.Query{OrderBy: orderBy, Limit: listLimit(limit)}
	if item := strings.TrimSpace(f.Item); item != "" {
		q.Filters = append(q.Filters, repository.Eq("item", strings.ToLower(item)))
	}
	if f.City != "" {
		q.Filters = append(q.Filters, repository.Eq("location.city", f.City))
	}
	if f.VendorID != "" {
		q.Filters = append(q.Filters, repository.Eq("vendorId", f.VendorID))
	}
	if f.Verified != nil {
		q.Filters = append(q.Filters, repository.Eq("verified", *f.Verified))
	}

	found, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list prices: %w", ErrUnavailable, err)
	}

	list := &model.PriceList{
		Count:        len(found),
		Prices:       found,
		PricesByItem: make(map[string][]model.PriceEntry),
		Timestamp:    stamp(s.now()),
	}
	for _, p := range found {
		list.PricesByItem[p.Item] = append(list.PricesByItem[p.Item], p)
	}
	return list, nil
}

// Trends summarizes the verified prices of item reported in the last days
// days, oldest first. Zero days means the default window of 30.
func (s *PriceService) Trends(ctx context.Context, item string, days int) (*model.PriceTrends, error) {
	item = strings.ToLower(strings.TrimSpace(item))
	if item == "" {
		return nil, invalid("item is required")
	}
	if days == 0 {
		days = defaultTrendDays
	}
	if days < 0 || days > maxTrendDays {
		return nil, invalid("days must be between 1 and %d", maxTrendDays)
	}

	since := stamp(s.now()).Add(-time.Duration(days) * 24 * time.Hour)
	found, err := s.store.Query(ctx, repository.Query{
		Filters: []repository.Filter{
			repository.Eq("item", item),
			repository.Eq("verified", true),
			{Field: "timestamp", Op: repository.OpGte, Value: since},
		},
		OrderBy: []repository.Order{{Field: "timestamp"}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: price trends: %w", ErrUnavailable, err)
	}

	prices := make([]float64, len(found))
	for i, p := range found {
		prices[i] = p.Price
	}
	stats := scoring.Trend(prices)

	return &model.PriceTrends{
		Item:         item,
		Period:       fmt.Sprintf("%d days", days),
		Count:        len(found),
		AveragePrice: stats.Average,
		MinPrice:     stats.Min,
		MaxPrice:     stats.Max,
		Prices:       found,
		Trends:       stats.Direction,
	}, nil
}

// Verify accepts or rejects a report. A later review overrides an earlier
// one.
func (s *PriceService) Verify(ctx context.Context, id string, req model.VerifyPriceRequest) (*model.PriceEntry, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	verified := *req.Verified
	status := model.VerificationRejected
	if verified {
		status = model.VerificationVerified
	}

	now := stamp(s.now())
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq("verificationStatus", p.VerificationStatus)},
		repository.Fields{
			"verified":           verified,
			"verificationStatus": status,
			"verificationReason": req.Reason,
			"verifiedAt":         now,
			"updatedAt":          now,
		})
	if err != nil {
		return nil, storageErr("price entry", id, err)
	}

	p.Verified = verified
	p.VerificationStatus = status
	p.VerificationReason = req.Reason
	p.VerifiedAt = &now
	p.UpdatedAt = now

	log.Info().Str("priceId", id).Str("status", string(status)).Msg("price review recorded")
	evt := events.PriceRejected
	if verified {
		evt = events.PriceVerified
	}
	s.notify.emit(ctx, events.New(evt, id, p.VendorID, now, map[string]string{"reason": req.Reason}))

	return p, nil
}

// Vote adds one up or down vote. Each attempt only lands if the counter it
// bumps is unchanged since it was read; concurrent votes retry.
func (s *PriceService) Vote(ctx context.Context, id string, req model.VotePriceRequest) (*model.VoteTally, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	var err error
	for attempt := 1; attempt <= voteAttempts; attempt++ {
		var tally *model.VoteTally
		tally, err = s.vote(ctx, id, req)
		if err == nil {
			return tally, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.Debug().Str("priceId", id).Int("attempt", attempt).Msg("vote raced, retrying")
	}
	return nil, err
}

func (s *PriceService) vote(ctx context.Context, id string, req model.VotePriceRequest) (*model.VoteTally, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	field, current := "upvotes", p.Upvotes
	tally := model.VoteTally{Upvotes: p.Upvotes + 1, Downvotes: p.Downvotes}
	if req.Vote == model.VoteDown {
		field, current = "downvotes", p.Downvotes
		tally = model.VoteTally{Upvotes: p.Upvotes, Downvotes: p.Downvotes + 1}
	}

	now := stamp(s.now())
	err = s.store.UpdateIf(ctx, id,
		[]repository.Filter{repository.Eq(field, current)},
		repository.Fields{
			field:       current + 1,
			"updatedAt": now,
		})
	if err != nil {
		return nil, storageErr("price entry", id, err)
	}

	s.notify.emit(ctx, events.New(events.PriceVoted, id, req.VendorID, now, map[string]any{
		"vote":  req.Vote,
		"tally": tally,
	}))
	return &tally, nil
}

func (s *PriceService) load(ctx context.Context, id string) (*model.PriceEntry, error) {
	if id == "" {
		return nil, invalid("price entry id is required")
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storageErr("price entry", id, err)
	}
	return p, nil
}
