package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

// VendorHandler serves vendor registration and profile lookups.
type VendorHandler struct {
	svc *service.VendorService
}

// NewVendorHandler constructs a VendorHandler.
func NewVendorHandler(svc *service.VendorService) *VendorHandler {
	return &VendorHandler{svc: svc}
}

// Register handles POST /api/vendors/register
func (h *VendorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterVendorRequest
	if !readBody(w, r, &req) {
		return
	}

	vendor, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vendor)
}

// List handles GET /api/vendors?city=&active=&limit=
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	f := model.VendorFilter{City: r.URL.Query().Get("city"), Limit: limit}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "active must be true or false")
			return
		}
		f.Active = &active
	}

	vendors, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(vendors), "vendors": vendors})
}

// Get handles GET /api/vendors/{id}
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

// Update handles PUT /api/vendors/{id}
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateVendorRequest
	if !readBody(w, r, &req) {
		return
	}

	vendor, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}
