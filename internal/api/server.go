package api

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string, corsOrigins []string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Health)
	mux.HandleFunc("POST /api/v1/statements/upload", handler.UploadStatement)
	mux.HandleFunc("GET /api/v1/transactions", handler.ListTransactions)
	mux.HandleFunc("GET /api/v1/holdings", handler.GetHoldings)
	mux.HandleFunc("GET /api/v1/mutualfund/nav/{isin}", handler.GetNAV)

	eodHandler := http.HandlerFunc(handler.RunEOD)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/mutualfund/eod", requireAuth(adminAPIKey, eodHandler))
	} else {
		mux.Handle("POST /api/v1/mutualfund/eod", eodHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      withCORS(corsOrigins, mux),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withCORS allows cross-origin calls from the given origins; "*" allows any.
// Preflight requests are answered without reaching next.
func withCORS(origins []string, next http.Handler) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(origins, origin)) {
			h := w.Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
