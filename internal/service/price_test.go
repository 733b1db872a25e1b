package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/events"
	"github.com/Shivanand-hulikatti/vendor-exchange/internal/model"
)

const photo = "https://img.example/receipt.jpg"

type stubProof struct {
	mu    sync.Mutex
	check model.ProofCheck
	err   error
	calls []string
}

func (p *stubProof) Check(_ context.Context, photoURL, item string, price float64) (model.ProofCheck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf("%s %s %g", photoURL, item, price))
	return p.check, p.err
}

func (p *stubProof) confidence(c float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.check = model.ProofCheck{Success: true, Confidence: c}
}

func (f *fixture) price(t *testing.T, vendorID, item string, price float64) *model.PriceEntry {
	t.Helper()
	p, err := f.prices.Create(context.Background(), model.CreatePriceRequest{
		VendorID: vendorID, Item: item, Price: price, ProofPhotoURL: photo,
	})
	require.NoError(t, err)
	return p
}

func TestPriceReportAutoVerified(t *testing.T) {
	f := newFixture(t)
	v := f.vendor(t, "v1", "Nashik")

	p, err := f.prices.Create(context.Background(), model.CreatePriceRequest{
		VendorID: v.ID, Item: "  Onions ", Price: 32, ProofPhotoURL: photo, Notes: "morning auction",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "onions", p.Item)
	assert.Equal(t, "kg", p.Unit)
	assert.Equal(t, model.DefaultMarket, p.MarketName)
	assert.Equal(t, "Nashik", p.Location.City)
	assert.Equal(t, "v1", p.VendorName)
	assert.True(t, p.Verified)
	assert.Equal(t, model.VerificationVerified, p.VerificationStatus)
	require.NotNil(t, p.VerifiedAt)
	assert.Equal(t, testNow, *p.VerifiedAt)
	assert.Equal(t, 0.85, p.ProofCheck.Confidence)
	assert.Equal(t, testNow, p.Timestamp)
	assert.Zero(t, p.Upvotes)
	assert.True(t, p.IsActive)

	assert.Equal(t, []string{photo + " onions 32"}, f.proof.calls)
	assert.Equal(t, []events.Type{events.PriceReported}, f.pub.types())

	stored, err := f.prices.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, stored)
}

func TestPriceReportPendingReview(t *testing.T) {
	f := newFixture(t)
	v := f.vendor(t, "v1", "Nashik")

	f.proof.confidence(0.7)
	p := f.price(t, v.ID, "onions", 30)
	assert.False(t, p.Verified, "threshold is exclusive")
	assert.Equal(t, model.VerificationPending, p.VerificationStatus)
	assert.Nil(t, p.VerifiedAt)

	f.proof.err = errors.New("vision backend down")
	p = f.price(t, v.ID, "onions", 30)
	assert.False(t, p.Verified)
	assert.Equal(t, model.VerificationPending, p.VerificationStatus)
	assert.False(t, p.ProofCheck.Success)
	assert.NotEmpty(t, p.ProofCheck.Error)
}

func TestPriceCreateRejections(t *testing.T) {
	f := newFixture(t)
	v := f.vendor(t, "v1", "Nashik")

	tests := []struct {
		name string
		req  model.CreatePriceRequest
		want error
	}{
		{"missing vendor", model.CreatePriceRequest{Item: "onions", Price: 30, ProofPhotoURL: photo}, ErrValidation},
		{"blank item", model.CreatePriceRequest{VendorID: v.ID, Item: "  ", Price: 30, ProofPhotoURL: photo}, ErrValidation},
		{"zero price", model.CreatePriceRequest{VendorID: v.ID, Item: "onions", ProofPhotoURL: photo}, ErrValidation},
		{"no proof", model.CreatePriceRequest{VendorID: v.ID, Item: "onions", Price: 30}, ErrValidation},
		{"bad proof url", model.CreatePriceRequest{VendorID: v.ID, Item: "onions", Price: 30, ProofPhotoURL: "receipt"}, ErrValidation},
		{"unknown vendor", model.CreatePriceRequest{VendorID: "ghost", Item: "onions", Price: 30, ProofPhotoURL: photo}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.prices.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.proof.calls, "proof is only checked for valid reports")
	assert.Empty(t, f.pub.types())
}

func TestPriceListFiltersAndGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nashik := f.vendor(t, "n", "Nashik")
	pune := f.vendor(t, "p", "Pune")

	onion := f.price(t, nashik.ID, "Onions", 32)
	f.advance(time.Minute)
	potato := f.price(t, nashik.ID, "potatoes", 18)
	f.advance(time.Minute)
	f.proof.confidence(0.4)
	punePending := f.price(t, pune.ID, "onions", 35)

	list, err := f.prices.List(ctx, model.PriceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, []string{punePending.ID, potato.ID, onion.ID}, priceIDs(list.Prices), "newest first")
	assert.Equal(t, []string{punePending.ID, onion.ID}, priceIDs(list.PricesByItem["onions"]))
	assert.Len(t, list.PricesByItem["potatoes"], 1)
	assert.Equal(t, f.at, list.Timestamp)

	list, err = f.prices.List(ctx, model.PriceFilter{Item: "ONIONS", Verified: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{onion.ID}, priceIDs(list.Prices))

	list, err = f.prices.List(ctx, model.PriceFilter{Verified: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{punePending.ID}, priceIDs(list.Prices))

	list, err = f.prices.List(ctx, model.PriceFilter{City: "Nashik", SortBy: "price", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{potato.ID, onion.ID}, priceIDs(list.Prices))

	list, err = f.prices.List(ctx, model.PriceFilter{VendorID: pune.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{punePending.ID}, priceIDs(list.Prices))

	list, err = f.prices.List(ctx, model.PriceFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	list, err = f.prices.List(ctx, model.PriceFilter{Item: "garlic"})
	require.NoError(t, err)
	assert.Zero(t, list.Count)
	assert.NotNil(t, list.PricesByItem)

	_, err = f.prices.List(ctx, model.PriceFilter{SortBy: "vendorName"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPriceTrends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vendor(t, "v1", "Nashik")

	old := f.price(t, v.ID, "onions", 20)
	f.advance(35 * 24 * time.Hour)
	first := f.price(t, v.ID, "onions", 40)
	f.advance(24 * time.Hour)
	second := f.price(t, v.ID, "onions", 35)
	f.advance(24 * time.Hour)
	f.proof.confidence(0.5)
	f.price(t, v.ID, "onions", 100)
	f.proof.confidence(0.9)
	f.advance(24 * time.Hour)
	last := f.price(t, v.ID, "onions", 50)
	f.price(t, v.ID, "potatoes", 10)

	tr, err := f.prices.Trends(ctx, "Onions", 0)
	require.NoError(t, err)
	assert.Equal(t, "onions", tr.Item)
	assert.Equal(t, "30 days", tr.Period)
	assert.Equal(t, 3, tr.Count)
	assert.Equal(t, []string{first.ID, second.ID, last.ID}, priceIDs(tr.Prices), "verified only, oldest first")
	assert.Equal(t, 41.67, tr.AveragePrice)
	assert.Equal(t, 35.0, tr.MinPrice)
	assert.Equal(t, 50.0, tr.MaxPrice)
	assert.Equal(t, model.TrendDirection{IsIncreasing: true, PercentChange: 25}, tr.Trends)

	tr, err = f.prices.Trends(ctx, "onions", 60)
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID, first.ID, second.ID, last.ID}, priceIDs(tr.Prices))
	assert.Equal(t, 36.25, tr.AveragePrice)
	assert.Equal(t, 150.0, tr.Trends.PercentChange)

	// The window start is inclusive.
	tr, err = f.prices.Trends(ctx, "onions", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, last.ID}, priceIDs(tr.Prices))

	tr, err = f.prices.Trends(ctx, "garlic", 7)
	require.NoError(t, err)
	assert.Zero(t, tr.Count)
	assert.Zero(t, tr.AveragePrice)
	assert.False(t, tr.Trends.IsIncreasing)

	for _, days := range []int{-1, maxTrendDays + 1} {
		_, err = f.prices.Trends(ctx, "onions", days)
		assert.ErrorIs(t, err, ErrValidation)
	}
	_, err = f.prices.Trends(ctx, " ", 7)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPriceVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vendor(t, "v1", "Nashik")

	f.proof.confidence(0.3)
	p := f.price(t, v.ID, "onions", 30)
	require.Equal(t, model.VerificationPending, p.VerificationStatus)

	f.advance(time.Hour)
	got, err := f.prices.Verify(ctx, p.ID, model.VerifyPriceRequest{Verified: ptr(true), Reason: "matches mandi board"})
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, model.VerificationVerified, got.VerificationStatus)
	assert.Equal(t, testNow.Add(time.Hour), *got.VerifiedAt)

	tr, err := f.prices.Trends(ctx, "onions", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Count)

	got, err = f.prices.Verify(ctx, p.ID, model.VerifyPriceRequest{Verified: ptr(false), Reason: "blurry photo"})
	require.NoError(t, err)
	assert.False(t, got.Verified)
	assert.Equal(t, model.VerificationRejected, got.VerificationStatus)

	stored, err := f.prices.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "blurry photo", stored.VerificationReason)
	assert.Equal(t, model.VerificationRejected, stored.VerificationStatus)

	tr, err = f.prices.Trends(ctx, "onions", 7)
	require.NoError(t, err)
	assert.Zero(t, tr.Count, "rejected reports leave the trend")

	_, err = f.prices.Verify(ctx, p.ID, model.VerifyPriceRequest{Reason: "no decision"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.prices.Verify(ctx, "nope", model.VerifyPriceRequest{Verified: ptr(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []events.Type{events.PriceReported, events.PriceVerified, events.PriceRejected}, f.pub.types())
}

func TestPriceVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vendor(t, "v1", "Nashik")
	p := f.price(t, v.ID, "onions", 30)

	tally, err := f.prices.Vote(ctx, p.ID, model.VotePriceRequest{Vote: model.VoteUp, VendorID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{Upvotes: 1}, *tally)

	tally, err = f.prices.Vote(ctx, p.ID, model.VotePriceRequest{Vote: model.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{Upvotes: 2}, *tally)

	tally, err = f.prices.Vote(ctx, p.ID, model.VotePriceRequest{Vote: model.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{Upvotes: 2, Downvotes: 1}, *tally)

	stored, err := f.prices.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Upvotes)
	assert.Equal(t, 1, stored.Downvotes)

	_, err = f.prices.Vote(ctx, p.ID, model.VotePriceRequest{Vote: "sideways"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.prices.Vote(ctx, "nope", model.VotePriceRequest{Vote: model.VoteUp})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPriceConcurrentVotesNeverLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.vendor(t, "v1", "Nashik")
	p := f.price(t, v.ID, "onions", 30)

	const voters = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.prices.Vote(ctx, p.ID, model.VotePriceRequest{Vote: model.VoteUp})
			if err != nil {
				assert.ErrorIs(t, err, ErrConflict)
				return
			}
			mu.Lock()
			accepted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	stored, err := f.prices.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Positive(t, accepted)
	assert.Equal(t, accepted, stored.Upvotes, "every accepted vote is counted exactly once")
}

func priceIDs(ps []model.PriceEntry) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
