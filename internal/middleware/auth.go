package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/fitledger/backend/internal/auth"
	"github.com/fitledger/backend/internal/telemetry/tracing"
	"github.com/fitledger/backend/pkg"
)

type AuthMiddlewareHandler struct {
	tokenChecker auth.TokenChecker
	// method -> set of paths reachable without a token
	publicPaths map[string]map[string]bool
}

func NewAuthMiddlewareHandler(tokenChecker auth.TokenChecker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenChecker: tokenChecker,
		publicPaths: map[string]map[string]bool{
			http.MethodPost: {
				"/api/signup": true,
				"/api/login":  true,
			},
			http.MethodGet: {
				"/api/exercises": true,
				"/":              true,
				"/version":       true,
			},
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsPublic(method, path string) bool {
	return h.publicPaths[method][path]
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				span.SetStatus(codes.Ok, "options-ok")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if h.pathIsPublic(r.Method, r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// the token is the raw header value, no "Bearer " prefix
			authToken := r.Header.Get("Authorization")
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.tokenChecker.VerifyToken(authToken)
			if err != nil {
				log.Tracef("[invalid token] [auth middleware] forbidden => %s: %s", r.URL.Path, err)
				pkg.WriteJSONError(w, "forbidden", http.StatusForbidden)
				span.SetStatus(codes.Error, "invalid-auth-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(ctx, userID)))
		})
	}
}
