// Package cache fronts the vendor directory with Redis. Every listing write
// resolves one or two vendors, and vendor profiles change rarely.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
)

const keyPrefix = "vendor:"

// Backend is the authoritative vendor storage.
type Backend interface {
	Get(ctx context.Context, id string) (*model.Vendor, error)
	Put(ctx context.Context, id string, v *model.Vendor) error
	Update(ctx context.Context, id string, fields repository.Fields) error
	Query(ctx context.Context, q repository.Query) ([]model.Vendor, error)
}

// VendorDirectory is a read-through cache over a Backend. Writes go to the
// backend first and then drop the cached copy. Redis errors degrade to
// backend reads; they never fail a call.
type VendorDirectory struct {
	backend Backend
	rdb     *redis.Client
	ttl     time.Duration
}

// NewVendorDirectory wraps backend with a Redis cache whose entries live for ttl.
func NewVendorDirectory(backend Backend, rdb *redis.Client, ttl time.Duration) *VendorDirectory {
	return &VendorDirectory{backend: backend, rdb: rdb, ttl: ttl}
}

// NewClient connects to Redis at addr.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func key(id string) string { return keyPrefix + id }

// Get serves the vendor from Redis when cached, otherwise from the backend,
// populating the cache on the way out.
func (d *VendorDirectory) Get(ctx context.Context, id string) (*model.Vendor, error) {
	raw, err := d.rdb.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var v model.Vendor
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return &v, nil
		}
		log.Warn().Str("vendorId", id).Msg("discarding undecodable cached vendor")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("vendorId", id).Msg("vendor cache read failed")
	}

	v, err := d.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, v)
	return v, nil
}

// Put writes through to the backend and invalidates the cached entry.
func (d *VendorDirectory) Put(ctx context.Context, id string, v *model.Vendor) error {
	if err := d.backend.Put(ctx, id, v); err != nil {
		return err
	}
	d.invalidate(ctx, id)
	return nil
}

// Update writes through to the backend and invalidates the cached entry.
func (d *VendorDirectory) Update(ctx context.Context, id string, fields repository.Fields) error {
	if err := d.backend.Update(ctx, id, fields); err != nil {
		return err
	}
	d.invalidate(ctx, id)
	return nil
}

// Query is not cached.
func (d *VendorDirectory) Query(ctx context.Context, q repository.Query) ([]model.Vendor, error) {
	return d.backend.Query(ctx, q)
}

func (d *VendorDirectory) store(ctx context.Context, v *model.Vendor) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.rdb.Set(ctx, key(v.ID), body, d.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("vendorId", v.ID).Msg("vendor cache write failed")
	}
}

func (d *VendorDirectory) invalidate(ctx context.Context, id string) {
	if err := d.rdb.Del(ctx, key(id)).Err(); err != nil {
		log.Warn().Err(err).Str("vendorId", id).Msg("vendor cache invalidation failed")
	}
}
