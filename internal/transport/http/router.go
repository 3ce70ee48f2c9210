package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shop-auth-api/internal/application/recovery"
	"github.com/shop-auth-api/internal/application/session"
	"github.com/shop-auth-api/internal/application/user"
	"github.com/shop-auth-api/internal/config"
	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/shop-auth-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	manager := session.NewManager(deps.SessionRepo, cfg.SessionLifetime, cfg.TempSessionLifetime)

	userSessionSvc := session.NewService(deps.UserRepo, domain.TypeUser, manager, deps.TokenCodec)
	adminSessionSvc := session.NewService(deps.AdminRepo, domain.TypeAdmin, manager, deps.TokenCodec)
	userSvc := user.NewService(deps.UserRepo, manager, deps.TokenCodec)
	recoverySvc := recovery.NewService(deps.UserRepo, deps.OperationRepo, manager, deps.Mailer, deps.SMSSender, cfg.OTPLifetime)

	userAuth := appmiddleware.Auth(deps.TokenCodec, manager, deps.UserRepo, domain.TypeUser)
	adminAuth := appmiddleware.Auth(deps.TokenCodec, manager, deps.AdminRepo, domain.TypeAdmin)

	healthH := handler.NewHealthHandler()
	userSessionH := handler.NewSessionHandler(userSessionSvc, cfg.SessionLifetime)
	adminSessionH := handler.NewSessionHandler(adminSessionSvc, cfg.SessionLifetime)
	userH := handler.NewUserHandler(userSvc, cfg.SessionLifetime)
	recoveryH := handler.NewRecoveryHandler(recoverySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", userSessionH.Login)
		r.With(sensitiveRL.Limit).Post("/admin/sessions/login", adminSessionH.Login)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", recoveryH.Action)

		// ── Authenticated user routes ────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(userAuth)

			r.Get("/sessions", userSessionH.Current)
			r.Post("/sessions/logout", userSessionH.Logout)

			// Merchant-only routes hang off this gate.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleMerchant))
				r.Get("/seller/ping", healthH.Test)
			})
		})

		// ── Authenticated admin routes ───────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(adminAuth)

			r.Get("/admin/sessions", adminSessionH.Current)
			r.Post("/admin/sessions/logout", adminSessionH.Logout)
			r.Put("/admin/users/{id}/restrict", userH.Restrict)
		})
	})

	return r
}
