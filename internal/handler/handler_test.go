package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/events"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := func() time.Time { return testNow }

	vendors := service.NewVendorService(repository.NewStore[model.Vendor](repository.NewMemoryCollection()), clock)
	svc := Services{
		Vendors: vendors,
		Emergency: service.NewEmergencyService(
			repository.NewStore[model.EmergencyRequest](repository.NewMemoryCollection()),
			vendors, events.Discard{}, clock),
		Surplus: service.NewSurplusService(
			repository.NewStore[model.SurplusListing](repository.NewMemoryCollection()),
			vendors, events.Discard{}, clock),
		Prices: service.NewPriceService(
			repository.NewStore[model.PriceEntry](repository.NewMemoryCollection()),
			vendors, service.ManualReview{}, events.Discard{}, clock),
	}

	srv := httptest.NewServer(NewRouter(svc, RouterOptions{RequestTimeout: 5 * time.Second}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, srv *httptest.Server, name, city string) model.Vendor {
	t.Helper()
	var v model.Vendor
	status := call(t, srv, http.MethodPost, "/api/vendors/register", map[string]any{
		"name":     name,
		"shopName": name + "'s stall",
		"phone":    "+91-" + name,
		"location": map[string]any{"city": city},
	}, &v)
	require.Equal(t, http.StatusCreated, status)
	return v
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestEmergencyFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	v1 := register(t, srv, "v1", "Mumbai")
	v2 := register(t, srv, "v2", "Mumbai")

	var created model.EmergencyCreated
	status := call(t, srv, http.MethodPost, "/api/emergency/add", map[string]any{
		"vendorId":     v1.ID,
		"item":         "rice",
		"quantity":     500,
		"urgencyLevel": "critical",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	id := created.Emergency.ID
	assert.Equal(t, 100, created.Emergency.Priority)
	assert.Equal(t, "12 hours", created.BroadcastInfo.ExpiresIn)

	var receipt model.ResponseReceipt
	status = call(t, srv, http.MethodPut, "/api/emergency/"+id+"/respond", map[string]any{
		"responderVendorId": v2.ID,
		"availableQuantity": 500,
	}, &receipt)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "v1", receipt.Requester.Name)

	var errBody model.ErrorResponse
	status = call(t, srv, http.MethodPut, "/api/emergency/"+id+"/fulfill", map[string]any{
		"requesterVendorId":   v2.ID,
		"fulfilledByVendorId": v2.ID,
		"quantityFulfilled":   500,
	}, &errBody)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", errBody.Kind)

	var fulfilled model.EmergencyRequest
	status = call(t, srv, http.MethodPut, "/api/emergency/"+id+"/fulfill", map[string]any{
		"requesterVendorId":   v1.ID,
		"fulfilledByVendorId": v2.ID,
		"quantityFulfilled":   500,
	}, &fulfilled)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.EmergencyFulfilled, fulfilled.Status)

	status = call(t, srv, http.MethodPut, "/api/emergency/"+id+"/respond", map[string]any{
		"responderVendorId": v2.ID,
		"availableQuantity": 1,
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_state", errBody.Kind)

	// Fulfilled requests drop out of the default active listing.
	var list model.EmergencyList
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/emergency", nil, &list))
	assert.Zero(t, list.Count)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/emergency?status=all", nil, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Requests[0].ResponseCount)

	var view model.EmergencyView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/emergency/"+id, nil, &view))
	require.NotNil(t, view.ExpiryInfo)
	assert.Equal(t, 12, view.ExpiryInfo.Hours)
}

func TestSurplusFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	v1 := register(t, srv, "v1", "Pune")
	v2 := register(t, srv, "v2", "Pune")

	var sl model.SurplusListing
	status := call(t, srv, http.MethodPost, "/api/surplus/add", map[string]any{
		"vendorId":      v1.ID,
		"item":          "tomatoes",
		"quantity":      200,
		"originalPrice": 25,
	}, &sl)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 20.0, sl.DiscountedPrice)
	assert.Equal(t, 5.0, sl.Savings)

	var receipt model.ClaimReceipt
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/api/surplus/"+sl.ID+"/claim",
		map[string]any{"claimedByVendorId": v2.ID}, &receipt))
	assert.Equal(t, v2.ID, receipt.ClaimedBy.VendorID)

	var errBody model.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPut, "/api/surplus/"+sl.ID+"/claim",
		map[string]any{"claimedByVendorId": v2.ID}, &errBody))
	assert.Equal(t, "invalid_state", errBody.Kind)

	var done model.SurplusListing
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/api/surplus/"+sl.ID+"/complete",
		map[string]any{"completedByVendorId": v2.ID, "rating": 4}, &done))
	assert.Equal(t, model.SurplusCompleted, done.Status)

	var list model.SurplusList
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/surplus?status=completed", nil, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Summary.Normal)
}

func TestSurplusRemoveOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	v1 := register(t, srv, "v1", "Pune")

	var sl model.SurplusListing
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/surplus/add", map[string]any{
		"vendorId": v1.ID, "item": "okra", "quantity": 3, "originalPrice": 40,
	}, &sl))

	var removed model.SurplusListing
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodDelete, "/api/surplus/"+sl.ID,
		map[string]any{"vendorId": v1.ID, "reason": "sold at mandi"}, &removed))
	assert.Equal(t, model.SurplusRemoved, removed.Status)
	assert.False(t, removed.IsActive)

	var view model.SurplusView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/surplus/"+sl.ID, nil, &view))
	assert.Equal(t, "sold at mandi", view.RemovalReason)
}

func TestListDefaultsToOpenStatus(t *testing.T) {
	srv := newTestServer(t)
	v := register(t, srv, "v1", "Pune")

	var sl model.SurplusListing
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/surplus/add", map[string]any{
		"vendorId": v.ID, "item": "okra", "quantity": 3, "originalPrice": 40,
	}, &sl))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodDelete, "/api/surplus/"+sl.ID,
		map[string]any{"vendorId": v.ID}, nil))

	var list model.SurplusList
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/surplus", nil, &list))
	assert.Zero(t, list.Count)
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/surplus?status=all", nil, &list))
	assert.Equal(t, 1, list.Count)
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/surplus?status=removed", nil, &list))
	assert.Equal(t, 1, list.Count)
}

func TestPriceFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	v := register(t, srv, "v1", "Nashik")

	var p model.PriceEntry
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/api/prices/add", map[string]any{
		"vendorId":      v.ID,
		"item":          "Onions",
		"price":         32,
		"proofPhotoURL": "https://img.example/board.jpg",
	}, &p))
	assert.Equal(t, "onions", p.Item)
	assert.Equal(t, model.VerificationPending, p.VerificationStatus, "manual review leaves reports pending")

	var trends model.PriceTrends
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/prices/trends/onions", nil, &trends))
	assert.Zero(t, trends.Count)

	var verified model.PriceEntry
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/api/prices/"+p.ID+"/verify",
		map[string]any{"verified": true}, &verified))
	assert.True(t, verified.Verified)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/prices/trends/onions?days=7", nil, &trends))
	assert.Equal(t, 1, trends.Count)
	assert.Equal(t, "7 days", trends.Period)
	assert.Equal(t, 32.0, trends.AveragePrice)

	var voted struct {
		Votes model.VoteTally `json:"votes"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/prices/"+p.ID+"/vote",
		map[string]any{"vote": "up", "vendorId": v.ID}, &voted))
	assert.Equal(t, model.VoteTally{Upvotes: 1}, voted.Votes)

	var list model.PriceList
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/prices?verified=true", nil, &list))
	assert.Equal(t, 1, list.Count)
	assert.Len(t, list.PricesByItem["onions"], 1)

	var got model.PriceEntry
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/prices/"+p.ID, nil, &got))
	assert.Equal(t, 1, got.Upvotes)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	v := register(t, srv, "v1", "Pune")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantKind   string
	}{
		{"unknown field", http.MethodPost, "/api/emergency/add", map[string]any{"vendorId": v.ID, "bogus": 1}, http.StatusBadRequest, "validation"},
		{"bad urgency", http.MethodPost, "/api/emergency/add", map[string]any{"vendorId": v.ID, "item": "rice", "quantity": 1, "urgencyLevel": "soon"}, http.StatusBadRequest, "validation"},
		{"unknown vendor", http.MethodPost, "/api/surplus/add", map[string]any{"vendorId": "ghost", "item": "x", "quantity": 1, "originalPrice": 1}, http.StatusNotFound, "not_found"},
		{"missing emergency", http.MethodGet, "/api/emergency/nope", nil, http.StatusNotFound, "not_found"},
		{"missing vendor", http.MethodGet, "/api/vendors/nope", nil, http.StatusNotFound, "not_found"},
		{"bad sort", http.MethodGet, "/api/surplus?sortBy=vendorName", nil, http.StatusBadRequest, "validation"},
		{"bad limit", http.MethodGet, "/api/emergency?limit=ten", nil, http.StatusBadRequest, "validation"},
		{"bad active flag", http.MethodGet, "/api/vendors?active=maybe", nil, http.StatusBadRequest, "validation"},
		{"bad vote", http.MethodPost, "/api/prices/x/vote", map[string]any{"vote": "sideways"}, http.StatusBadRequest, "validation"},
		{"vote on missing price", http.MethodPost, "/api/prices/x/vote", map[string]any{"vote": "up"}, http.StatusNotFound, "not_found"},
		{"bad trend window", http.MethodGet, "/api/prices/trends/onions?days=-3", nil, http.StatusBadRequest, "validation"},
		{"bad verified flag", http.MethodGet, "/api/prices?verified=maybe", nil, http.StatusBadRequest, "validation"},
		{"price without proof", http.MethodPost, "/api/prices/add", map[string]any{"vendorId": v.ID, "item": "onions", "price": 30}, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body model.ErrorResponse
			status := call(t, srv, tt.method, tt.path, tt.body, &body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestVendorEndpoints(t *testing.T) {
	srv := newTestServer(t)
	v := register(t, srv, "asha", "Mumbai")
	register(t, srv, "bala", "Pune")

	var list struct {
		Count   int            `json:"count"`
		Vendors []model.Vendor `json:"vendors"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/vendors?city=Mumbai", nil, &list))
	assert.Equal(t, 1, list.Count)

	var updated model.Vendor
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/api/vendors/"+v.ID,
		map[string]any{"shopName": "Asha Fresh"}, &updated))
	assert.Equal(t, "Asha Fresh", updated.ShopName)
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/surplus", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/surplus", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
