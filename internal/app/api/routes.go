// Package api собирает HTTP-сервис: маршруты, зависимости и жизненный цикл сервера.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/saas-core/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/saas-core/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/saas-core/internal/http/handlers/auth/register"
	authsession "github.com/magabrotheeeer/saas-core/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/saas-core/internal/http/handlers/entitlement/check"
	"github.com/magabrotheeeer/saas-core/internal/http/handlers/health"
	planlist "github.com/magabrotheeeer/saas-core/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/saas-core/internal/http/handlers/plan/read"
	subcreate "github.com/magabrotheeeer/saas-core/internal/http/handlers/subscription/create"
	sublist "github.com/magabrotheeeer/saas-core/internal/http/handlers/subscription/list"
	subread "github.com/magabrotheeeer/saas-core/internal/http/handlers/subscription/read"
	subremove "github.com/magabrotheeeer/saas-core/internal/http/handlers/subscription/remove"
	subupdate "github.com/magabrotheeeer/saas-core/internal/http/handlers/subscription/update"
	usercreate "github.com/magabrotheeeer/saas-core/internal/http/handlers/user/create"
	userlist "github.com/magabrotheeeer/saas-core/internal/http/handlers/user/list"
	userread "github.com/magabrotheeeer/saas-core/internal/http/handlers/user/read"
	userremove "github.com/magabrotheeeer/saas-core/internal/http/handlers/user/remove"
	userupdate "github.com/magabrotheeeer/saas-core/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/lib/session"
	"github.com/magabrotheeeer/saas-core/internal/metrics"
	authservice "github.com/magabrotheeeer/saas-core/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/saas-core/internal/services/entitlement"
	planservice "github.com/magabrotheeeer/saas-core/internal/services/plan"
	subservice "github.com/magabrotheeeer/saas-core/internal/services/subscription"
	userservice "github.com/magabrotheeeer/saas-core/internal/services/user"
)

// Dependencies — всё, что нужно маршрутам.
type Dependencies struct {
	Logger        *slog.Logger
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Limiter       *middlewarectx.IPRateLimiter
	Sessions      *session.Transport
	Auth          *authservice.AuthService
	Users         *userservice.UserService
	Subscriptions *subservice.SubscriptionService
	Plans         *planservice.PlanService
	Entitlements  *entitlementservice.Resolver
	DB            health.Pinger
	Cache         health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Dependencies) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			r.Post("/auth/register", register.New(logger, d.Auth, d.Sessions).ServeHTTP)
			r.Post("/auth/login", login.New(logger, d.Auth, d.Sessions).ServeHTTP)
		})

		// Открытые конечные точки
		r.Get("/auth/session", authsession.New(logger, d.Auth, d.Sessions).ServeHTTP)
		r.Post("/auth/logout", logout.New(logger, d.Sessions).ServeHTTP)
		r.Get("/plans", planlist.New(logger, d.Plans).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, d.Plans).ServeHTTP)
		r.Get("/health", health.New(logger, d.DB, d.Cache).ServeHTTP)

		// Группа с аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(d.Auth, d.Sessions, logger))
			r.Use(middlewarectx.RequireAuth(logger))

			r.Get("/users", userlist.New(logger, d.Users).ServeHTTP)
			r.Post("/users", usercreate.New(logger, d.Users).ServeHTTP)
			r.Get("/users/{id}", userread.New(logger, d.Users).ServeHTTP)
			r.Patch("/users/{id}", userupdate.New(logger, d.Users).ServeHTTP)
			r.Delete("/users/{id}", userremove.New(logger, d.Users).ServeHTTP)

			r.Get("/subscriptions", sublist.New(logger, d.Subscriptions).ServeHTTP)
			r.Post("/subscriptions", subcreate.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, d.Subscriptions).ServeHTTP)
			r.Patch("/subscriptions/{id}", subupdate.New(logger, d.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}", subremove.New(logger, d.Subscriptions).ServeHTTP)

			r.Get("/entitlements/{feature}", check.New(logger, d.Entitlements).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
