package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bondrizz-funnel/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CatalogReader serves read-only catalog and offer content.
type CatalogReader interface {
	Catalog(ctx context.Context, catalogID string) (domain.Catalog, error)
	Plans() []domain.Plan
}

// RouterOptions configures cross-origin access.
type RouterOptions struct {
	AllowedOrigins []string
	AddOnPrice     int
}

// NewRouter wires the REST endpoints and the funnel socket.
func NewRouter(catalogs CatalogReader, ws *WSHandler, opts RouterOptions, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	r.Use(corsMiddleware(opts.AllowedOrigins))
	ws.upgrader.CheckOrigin = checkOrigin(opts.AllowedOrigins)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		c, err := catalogs.Catalog(r.Context(), id)
		switch {
		case errors.Is(err, domain.ErrCatalogNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "catalog not found"})
			return
		case err != nil:
			logger.Error("load catalog failed", zap.String("catalog", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "catalog unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, c)
	}).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/plans", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"plans":      catalogs.Plans(),
			"addOnPrice": opts.AddOnPrice,
		})
	}).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowOrigin(allowed, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkOrigin applies the CORS allow list to websocket upgrades. Requests
// without an Origin header come from non-browser clients and pass.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowOrigin(allowed, origin) != ""
	}
}

// allowOrigin picks the Access-Control-Allow-Origin value; an empty list allows any origin.
func allowOrigin(allowed []string, origin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(a, origin) {
			return origin
		}
	}
	return ""
}
