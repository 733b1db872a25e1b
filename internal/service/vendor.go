package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
)

// VendorDirectory is the vendor storage the registry reads and writes.
// *repository.Store[model.Vendor] and the Redis-cached directory both satisfy it.
type VendorDirectory interface {
	Get(ctx context.Context, id string) (*model.Vendor, error)
	Put(ctx context.Context, id string, v *model.Vendor) error
	Update(ctx context.Context, id string, fields repository.Fields) error
	Query(ctx context.Context, q repository.Query) ([]model.Vendor, error)
}

// VendorService registers vendors and serves vendor lookups to the listing
// services.
type VendorService struct {
	dir VendorDirectory
	now Clock
}

// NewVendorService constructs a VendorService.
func NewVendorService(dir VendorDirectory, now Clock) *VendorService {
	return &VendorService{dir: dir, now: now}
}

// Register validates the profile and stores a new active vendor.
func (s *VendorService) Register(ctx context.Context, req model.RegisterVendorRequest) (*model.Vendor, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ShopName = strings.TrimSpace(req.ShopName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Location.City) == "" {
		return nil, invalid("location.city is required")
	}

	now := stamp(s.now())
	v := &model.Vendor{
		ID:           uuid.NewString(),
		Name:         req.Name,
		ShopName:     req.ShopName,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        req.Email,
		Location:     *req.Location,
		RawMaterials: nonNil(req.RawMaterials),
		Rating:       0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.dir.Put(ctx, v.ID, v); err != nil {
		return nil, storageErr("vendor", v.ID, err)
	}

	log.Info().Str("vendorId", v.ID).Str("city", v.Location.City).Msg("vendor registered")
	return v, nil
}

// Get returns a vendor or an ErrNotFound-wrapped error.
func (s *VendorService) Get(ctx context.Context, id string) (*model.Vendor, error) {
	if id == "" {
		return nil, invalid("vendor id is required")
	}
	v, err := s.dir.Get(ctx, id)
	if err != nil {
		return nil, storageErr("vendor", id, err)
	}
	return v, nil
}

// List returns vendors, optionally narrowed by city and active flag, newest first.
func (s *VendorService) List(ctx context.Context, f model.VendorFilter) ([]model.Vendor, error) {
	q := repository.Query{
		OrderBy: []repository.Order{{Field: "createdAt", Desc: true}},
		Limit:   listLimit(f.Limit),
	}
	if f.City != "" {
		q.Filters = append(q.Filters, repository.Eq("location.city", f.City))
	}
	if f.Active != nil {
		q.Filters = append(q.Filters, repository.Eq("isActive", *f.Active))
	}

	vendors, err := s.dir.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list vendors: %w", ErrUnavailable, err)
	}
	return vendors, nil
}

// Update applies the non-nil profile fields and returns the updated vendor.
func (s *VendorService) Update(ctx context.Context, id string, req model.UpdateVendorRequest) (*model.Vendor, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	fields := repository.Fields{"updatedAt": stamp(s.now())}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.ShopName != nil {
		fields["shopName"] = strings.TrimSpace(*req.ShopName)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		fields["email"] = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Location != nil {
		if strings.TrimSpace(req.Location.City) == "" {
			return nil, invalid("location.city is required")
		}
		fields["location"] = req.Location
	}
	if req.RawMaterials != nil {
		fields["rawMaterials"] = req.RawMaterials
	}

	if err := s.dir.Update(ctx, id, fields); err != nil {
		return nil, storageErr("vendor", id, err)
	}
	log.Info().Str("vendorId", id).Int("fields", len(fields)-1).Msg("vendor updated")
	return s.Get(ctx, id)
}

// SeedSample registers a few demo vendors when the directory is empty and
// returns their ids.
func (s *VendorService) SeedSample(ctx context.Context) ([]string, error) {
	existing, err := s.dir.Query(ctx, repository.Query{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	samples := []model.RegisterVendorRequest{
		{
			Name: "Ravi Kumar", ShopName: "Ravi Chaat Corner", Phone: "+919876543210",
			Email:        "ravi@example.com",
			Location:     &model.Location{Address: "Linking Road", City: "Mumbai", State: "Maharashtra", Pincode: "400050"},
			RawMaterials: []string{"potatoes", "onions", "tamarind"},
		},
		{
			Name: "Sunita Devi", ShopName: "Sunita Vada Pav", Phone: "+919812345678",
			Location:     &model.Location{Address: "Dadar West", City: "Mumbai", State: "Maharashtra", Pincode: "400028"},
			RawMaterials: []string{"potatoes", "besan", "oil"},
		},
		{
			Name: "Arjun Singh", ShopName: "Arjun Dosa Point", Phone: "+919900112233",
			Location:     &model.Location{Address: "MG Road", City: "Pune", State: "Maharashtra", Pincode: "411001"},
			RawMaterials: []string{"rice", "urad dal"},
		},
	}

	ids := make([]string, 0, len(samples))
	for _, req := range samples {
		v, err := s.Register(ctx, req)
		if err != nil {
			return ids, err
		}
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
