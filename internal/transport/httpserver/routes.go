package httpserver

import (
	"net/http"
	"time"

	"finance-app-go/internal/config"
	"finance-app-go/internal/metrics"
	"finance-app-go/internal/transport/httpserver/handler"
	authmw "finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLogger(log))
	r.Use(m.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Post("/webhooks/payments", handlers.Subscription.PaymentWebhook)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/groups", handlers.Groups.ListGroups)
			r.Post("/groups", handlers.Groups.CreateGroup)
			r.Get("/groups/{id}", handlers.Groups.GetGroup)
			r.Patch("/groups/{id}", handlers.Groups.UpdateGroup)
			r.Delete("/groups/{id}", handlers.Groups.DeleteGroup)
			r.Get("/groups/{id}/members", handlers.Groups.ListMembers)
			r.Delete("/groups/{id}/members/{user_id}", handlers.Groups.RemoveMember)
			r.Post("/groups/{id}/leave", handlers.Groups.LeaveGroup)

			r.Get("/groups/{id}/invitations", handlers.Groups.ListGroupInvitations)
			r.Post("/groups/{id}/invitations", handlers.Groups.CreateInvitation)
			r.Get("/invitations", handlers.Groups.ListMyInvitations)
			r.Post("/invitations/{id}/accept", handlers.Groups.AcceptInvitation)
			r.Post("/invitations/{id}/decline", handlers.Groups.DeclineInvitation)

			r.Post("/splits/preview", handlers.Ledger.PreviewSplit)
			r.Get("/groups/{id}/expenses", handlers.Ledger.ListGroupExpenses)
			r.Post("/groups/{id}/expenses", handlers.Ledger.CreateGroupExpense)
			r.Get("/groups/{id}/balances", handlers.Ledger.GroupBalances)
			r.Get("/expenses/{id}", handlers.Ledger.GetExpense)
			r.Delete("/expenses/{id}", handlers.Ledger.DeleteExpense)
			r.Put("/expenses/{id}/participants/{user_id}/paid", handlers.Ledger.SetParticipantPaid)

			r.Get("/subscription", handlers.Subscription.GetSubscription)
			r.Post("/subscription/check", handlers.Subscription.CheckSubscription)
			r.Post("/subscription/cancel", handlers.Subscription.CancelSubscription)
		})
	})

	return r
}
