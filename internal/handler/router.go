package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/service"
)

// Services are the business layers the router exposes.
type Services struct {
	Vendors   *service.VendorService
	Emergency *service.EmergencyService
	Surplus   *service.SurplusService
	Prices    *service.PriceService
}

// RouterOptions tune the middleware stack.
type RouterOptions struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter builds the chi router with the full middleware stack and all
// API routes.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	vendors := NewVendorHandler(svc.Vendors)
	emergency := NewEmergencyHandler(svc.Emergency)
	surplus := NewSurplusHandler(svc.Surplus)
	prices := NewPriceHandler(svc.Prices)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	if opts.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(opts.RequestTimeout))
	}
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/vendors", func(r chi.Router) {
			r.Post("/register", vendors.Register)
			r.Get("/", vendors.List)
			r.Get("/{id}", vendors.Get)
			r.Put("/{id}", vendors.Update)
		})

		r.Route("/emergency", func(r chi.Router) {
			r.Post("/add", emergency.Create)
			r.Get("/", emergency.List)
			r.Get("/{id}", emergency.Get)
			r.Put("/{id}/respond", emergency.Respond)
			r.Put("/{id}/fulfill", emergency.Fulfill)
			r.Put("/{id}/cancel", emergency.Cancel)
		})

		r.Route("/surplus", func(r chi.Router) {
			r.Post("/add", surplus.Create)
			r.Get("/", surplus.List)
			r.Get("/{id}", surplus.Get)
			r.Put("/{id}/claim", surplus.Claim)
			r.Put("/{id}/complete", surplus.Complete)
			r.Delete("/{id}", surplus.Remove)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/add", prices.Create)
			r.Get("/", prices.List)
			r.Get("/trends/{item}", prices.Trends)
			r.Get("/{id}", prices.Get)
			r.Put("/{id}/verify", prices.Verify)
			r.Post("/{id}/vote", prices.Vote)
		})
	})

	return r
}
