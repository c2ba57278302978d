package router

import (
	"go-recruit-auth/handler"
	"go-recruit-auth/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter wires every route behind its middleware chain. The order is the
// trust-boundary order: the rate limiter sees a request first, then the
// bearer-token check, then role checks, then the handler.
func NewRouter(
	authHandler *handler.AuthHandler,
	tokenHandler *handler.TokenHandler,
	webhookHandler *handler.WebhookHandler,
	authService *service.AuthService,
	limiter *service.RateLimiter,
) http.Handler {
	mux := http.NewServeMux()

	authMW := handler.AuthMiddleware(authService)
	rlAuth := handler.RateLimitMiddleware(limiter, "auth")
	rlPublic := handler.RateLimitMiddleware(limiter, "public")
	rlAdmin := handler.RateLimitMiddleware(limiter, "admin")

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Authentication flows run through the strict limiter.
	mux.Handle("POST /login", rlAuth(handler.ErrorHandlingMiddleware(authHandler.Login)))
	mux.Handle("POST /api/token/refresh", rlAuth(handler.ErrorHandlingMiddleware(authHandler.Refresh)))
	mux.Handle("POST /api/logout", authMW(handler.ErrorHandlingMiddleware(authHandler.Logout)))

	// Single-use token surface: request, validate, consume.
	mux.Handle("POST /password-reset", rlAuth(handler.ErrorHandlingMiddleware(tokenHandler.RequestPasswordReset)))
	mux.Handle("GET /tokens/{value}", rlPublic(handler.ErrorHandlingMiddleware(tokenHandler.ValidateToken)))
	mux.Handle("POST /tokens/{value}/consume", rlAuth(handler.ErrorHandlingMiddleware(tokenHandler.ConsumeToken)))

	// Administrative invitation management.
	mux.Handle("POST /api/admin/invitations",
		rlAdmin(authMW(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(tokenHandler.CreateInvitation)))))
	mux.Handle("DELETE /api/admin/invitations/{value}",
		rlAdmin(authMW(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(tokenHandler.CancelInvitation)))))

	// Inbound third-party callbacks pass the signature guard before anything
	// else touches them.
	mux.Handle("POST /webhooks/crm", rlPublic(handler.ErrorHandlingMiddleware(webhookHandler.HandleCRMEvent)))

	return mux
}
