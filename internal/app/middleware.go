package app

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/navette/navette/internal/config"
	"github.com/navette/navette/pkg/user"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-User-Email header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			emailHeader := req.Header.Get("X-User-Email")
			ctx := req.Context()

			if emailHeader != "" {
				u, err := deps.UserService.Get(ctx, emailHeader)
				if err != nil {
					log.Errorf("failed to get user: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				if u == nil {
					log.Debugf("user not found: %s", emailHeader)
					http.Error(w, "user not found", http.StatusForbidden)
					return
				}
				ctx = user.WithUser(ctx, *u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
