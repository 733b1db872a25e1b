package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

// SurplusHandler serves the surplus listing endpoints.
type SurplusHandler struct {
	svc *service.SurplusService
}

// NewSurplusHandler constructs a SurplusHandler.
func NewSurplusHandler(svc *service.SurplusService) *SurplusHandler {
	return &SurplusHandler{svc: svc}
}

// Create handles POST /api/surplus/add
func (h *SurplusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSurplusRequest
	if !readBody(w, r, &req) {
		return
	}

	sl, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sl)
}

// List handles GET /api/surplus
// Only available listings are returned unless a status parameter is given.
func (h *SurplusHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	q := r.URL.Query()

	list, err := h.svc.List(r.Context(), model.SurplusFilter{
		Item:      q.Get("item"),
		City:      q.Get("city"),
		VendorID:  q.Get("vendorId"),
		Status:    model.SurplusStatus(q.Get("status")),
		Priority:  model.SurplusPriority(q.Get("priority")),
		Condition: model.Condition(q.Get("condition")),
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		Order:     q.Get("order"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/surplus/{id}
func (h *SurplusHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Claim handles PUT /api/surplus/{id}/claim
func (h *SurplusHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req model.ClaimRequest
	if !readBody(w, r, &req) {
		return
	}

	receipt, err := h.svc.Claim(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Complete handles PUT /api/surplus/{id}/complete
func (h *SurplusHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteRequest
	if !readBody(w, r, &req) {
		return
	}

	sl, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// Remove handles DELETE /api/surplus/{id}
// The listing is soft-deleted and stays readable by id.
func (h *SurplusHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req model.RemoveRequest
	if !readBody(w, r, &req) {
		return
	}

	sl, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}
