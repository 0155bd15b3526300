package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Deps struct {
	Orders      interfaces.OrderService
	Tracking    interfaces.TrackingService
	Reviews     interfaces.ReviewService
	Permissions interfaces.PermissionAdminService
	Auth        *Authenticator
	Logger      logger.Logger
	Metrics     *metrics.Metrics
	// Health reports backing store reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	orders := NewOrderHandler(d.Orders, d.Logger)
	tracking := NewTrackingHandler(d.Tracking, d.Logger)
	reviews := NewReviewHandler(d.Reviews, d.Logger)
	perms := NewPermissionHandler(d.Permissions, d.Logger)

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware(d.Metrics))
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(RecoveryMiddleware(d.Logger))

	r.Get("/healthz", healthHandler(d.Health))
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.With(Authenticate(d.Auth, false)).Post("/orders", orders.PlaceOrder)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Auth, true))

		r.Get("/orders", tracking.ListOrders)
		r.Get("/orders/mine", tracking.ListMyOrders)
		r.Get("/orders/{id}", tracking.GetOrder)
		r.Get("/orders/{id}/history", tracking.GetOrderHistory)

		r.Put("/orders/{id}/status", orders.UpdateStatus)
		r.Put("/orders/{id}/cancel", orders.CancelOrder)
		r.Delete("/orders/{id}", orders.DeleteOrder)

		r.Post("/orders/{id}/review", reviews.CreateReview)
		r.Get("/orders/{id}/review", reviews.GetReview)
		r.Put("/reviews/{id}/accept", reviews.AcceptReview)

		r.Get("/permissions", perms.List)
		r.Put("/permissions", perms.Set)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
