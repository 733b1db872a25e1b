// Package service implements the marketplace business rules: vendor
// registration, crowd-reported prices, and the lifecycles of emergency
// requests and surplus listings.
// Every operation validates and authorizes before it writes.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/events"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
)

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time { return time.Now() }

// stamp normalizes a time for persistence: UTC, whole seconds. Stored
// timestamps then sort correctly as text.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func stampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	s := stamp(*t)
	return &s
}

// VendorLookup resolves vendor ids. Get returns an ErrNotFound-wrapped error
// for unknown vendors.
type VendorLookup interface {
	Get(ctx context.Context, id string) (*model.Vendor, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func listLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	}
	return n
}

// ordering turns a sortBy/order pair into sort keys. Anything other than
// ascending sorts descending; ties fall back to newest first.
func ordering(sortBy, order string, allowed map[string]bool) ([]repository.Order, error) {
	if !allowed[sortBy] {
		return nil, invalid("cannot sort by %q", sortBy)
	}
	desc := !strings.EqualFold(order, "asc")
	orderBy := []repository.Order{{Field: sortBy, Desc: desc}}
	if sortBy != "createdAt" {
		orderBy = append(orderBy, repository.Order{Field: "createdAt", Desc: true})
	}
	return orderBy, nil
}

// notifier publishes lifecycle events after a write has landed. A failed
// publish never fails the operation.
type notifier struct {
	pub events.Publisher
}

func (n notifier) emit(ctx context.Context, e events.Event) {
	if n.pub == nil {
		return
	}
	if err := n.pub.Publish(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("type", string(e.Type)).
			Str("entityId", e.EntityID).
			Msg("publish lifecycle event")
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
