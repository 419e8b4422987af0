package app

import (
	"fmt"
	"net/http"
	"recoverme/internal/app/deps"
	"recoverme/internal/app/services"
	resetpassword "recoverme/internal/http/handlers/auth/reset_password"
	sendpasswordresettoken "recoverme/internal/http/handlers/auth/send_password_reset_token"
	"recoverme/internal/http/handlers/health"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	return &http.Server{
		Handler: NewRouter(deps.Config.AllowedOrigins, deps.Config.TrustProxyHeaders, s),
		Addr:    fmt.Sprintf("0.0.0.0:%d", deps.Config.Port),
	}
}

// NewRouter keys client IPs on the socket address unless trustProxyHeaders is
// set, in which case RealIP rewrites it from X-Forwarded-For or X-Real-IP.
func NewRouter(allowedOrigins []string, trustProxyHeaders bool, s *services.Services) http.Handler {
	authRouter := chi.NewRouter()
	authRouter.Method(
		http.MethodPost,
		"/password_reset/token",
		sendpasswordresettoken.New(s.SendPasswordResetToken),
	)
	authRouter.Method(http.MethodPut, "/password_reset", resetpassword.New(s.ResetPassword))

	router := chi.NewRouter()
	if trustProxyHeaders {
		router.Use(middleware.RealIP)
	}
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Method(http.MethodGet, "/healthz", health.New())
	router.Mount("/auth", authRouter)

	return router
}
