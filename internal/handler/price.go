package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

// PriceHandler serves the crowd-reported price endpoints.
type PriceHandler struct {
	svc *service.PriceService
}

// NewPriceHandler constructs a PriceHandler.
func NewPriceHandler(svc *service.PriceService) *PriceHandler {
	return &PriceHandler{svc: svc}
}

// Create handles POST /api/prices/add
func (h *PriceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePriceRequest
	if !readBody(w, r, &req) {
		return
	}

	p, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /api/prices?item=&city=&vendorId=&verified=&limit=&sortBy=&order=
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	q := r.URL.Query()

	f := model.PriceFilter{
		Item:     q.Get("item"),
		City:     q.Get("city"),
		VendorID: q.Get("vendorId"),
		Limit:    limit,
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
	}
	if raw := q.Get("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation", "verified must be true or false")
			return
		}
		f.Verified = &verified
	}

	list, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Trends handles GET /api/prices/trends/{item}?days=
func (h *PriceHandler) Trends(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	trends, err := h.svc.Trends(r.Context(), chi.URLParam(r, "item"), days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

// Get handles GET /api/prices/{id}
func (h *PriceHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Verify handles PUT /api/prices/{id}/verify
func (h *PriceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPriceRequest
	if !readBody(w, r, &req) {
		return
	}

	p, err := h.svc.Verify(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Vote handles POST /api/prices/{id}/vote
func (h *PriceHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req model.VotePriceRequest
	if !readBody(w, r, &req) {
		return
	}

	tally, err := h.svc.Vote(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"votes": tally})
}
