package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

// EmergencyHandler serves the emergency request endpoints.
type EmergencyHandler struct {
	svc *service.EmergencyService
}

// NewEmergencyHandler constructs an EmergencyHandler.
func NewEmergencyHandler(svc *service.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{svc: svc}
}

// Create handles POST /api/emergency/add
// Broadcasts a new emergency request and returns its advisory reach.
func (h *EmergencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEmergencyRequest
	if !readBody(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/emergency
// Only active requests are returned unless a status parameter is given;
// status=all lists every status.
func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	q := r.URL.Query()

	list, err := h.svc.List(r.Context(), model.EmergencyFilter{
		Item:         q.Get("item"),
		City:         q.Get("city"),
		UrgencyLevel: model.UrgencyLevel(q.Get("urgencyLevel")),
		Status:       model.EmergencyStatus(q.Get("status")),
		VendorID:     q.Get("vendorId"),
		Limit:        limit,
		SortBy:       q.Get("sortBy"),
		Order:        q.Get("order"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/emergency/{id}
func (h *EmergencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Respond handles PUT /api/emergency/{id}/respond
func (h *EmergencyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req model.RespondRequest
	if !readBody(w, r, &req) {
		return
	}

	receipt, err := h.svc.Respond(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Fulfill handles PUT /api/emergency/{id}/fulfill
func (h *EmergencyHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	var req model.FulfillRequest
	if !readBody(w, r, &req) {
		return
	}

	er, err := h.svc.Fulfill(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, er)
}

// Cancel handles PUT /api/emergency/{id}/cancel
func (h *EmergencyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req model.CancelRequest
	if !readBody(w, r, &req) {
		return
	}

	er, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, er)
}
