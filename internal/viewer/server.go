// Package viewer serves the read-only browsing interface over the content
// store: a client sidebar, per-client conversation JSON, and the archived
// image files.
package viewer

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/http"
	"time"

	"chatvault/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	store     *store.Store
	imagesDir string
	host      string
	port      int
	logger    *slog.Logger
	tmpl      *htmltemplate.Template
	server    *http.Server
}

func New(st *store.Store, imagesDir, host string, port int, logger *slog.Logger) *Server {
	tmpl := htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	return &Server{
		store:     st,
		imagesDir: imagesDir,
		host:      host,
		port:      port,
		logger:    logger,
		tmpl:      tmpl,
	}
}

// Start blocks serving until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /api/clients", s.handleClients)
	mux.HandleFunc("GET /api/conversation", s.handleConversation)
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir))))

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info("viewer started", "addr", "http://"+addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ClientSummaries(r.Context())
	if err != nil {
		s.logger.Error("list clients", "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if clients == nil {
		clients = []store.ClientSummary{}
	}
	writeJSON(w, clients)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "missing client_id", http.StatusBadRequest)
		return
	}

	name, err := s.store.ClientName(r.Context(), clientID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("load client", "clientId", clientID, "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	messages, err := s.store.ConversationView(r.Context(), clientID)
	if err != nil {
		s.logger.Error("load conversation", "clientId", clientID, "err", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.ViewMessage{}
	}

	writeJSON(w, map[string]any{
		"client_id":   clientID,
		"client_name": name,
		"messages":    messages,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
