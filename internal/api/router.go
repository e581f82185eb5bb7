package api

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/_ping", handlePing)
	r.Get("/_local_ip", handleLocalIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/state", s.handleGetState)
		r.Get("/actions", s.handleListActions)
		r.Get("/predictions/fan", s.handlePredictFan)

		// Writes and the live socket need a token when a secret is set.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/command", s.handleCommand)
			r.Post("/intents", s.handleIntent)
			r.Post("/voice/transcripts", s.handleTranscript)
			r.Post("/predictions/intent", s.handlePredictIntent)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	if s.dashboard != nil {
		r.Handle("/*", s.dashboard)
	}

	return r
}

// handlePing is a liveness probe for the dashboard.
func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleLocalIP reports the address other devices on the LAN can reach.
func handleLocalIP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"ip": localIP()})
}

// localIP picks the source address of the default route. No packet is sent.
func localIP() string {
	conn, err := net.Dial("udp", "10.255.255.255:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
