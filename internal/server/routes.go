package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.AnalyzeHandler) // POST - run full analysis

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)            // POST - send a message
	mux.HandleFunc("/api/chat/history", s.app.ChatHandler.HistoryHandler) // GET - session history

	// API routes - States
	mux.HandleFunc("/api/states", s.app.StateHandler.ListStatesHandler) // GET - list states for owner
	mux.HandleFunc("/api/states/", s.app.StateHandler.StateRoutesHandler)

	// API routes - Downloads
	mux.HandleFunc("/api/download/", s.app.DownloadHandler.DownloadRoutesHandler)

	// API routes - Credentials
	mux.HandleFunc("/api/keys", s.app.KeyHandler.SetKeyHandler) // POST - store an owner credential
	mux.HandleFunc("/api/keys/", s.app.KeyHandler.DeleteKeyHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// JSON 404 for unknown API paths
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/" {
			s.app.APIHandler.NotFoundHandler(w, r)
			return
		}
		http.NotFound(w, r)
	})

	return mux
}
