// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hzyuan/campusqa-go/internal/adapters/userstore"
	"github.com/hzyuan/campusqa-go/internal/domain/entities"
	"github.com/hzyuan/campusqa-go/internal/domain/ports"
)

// historyRecords is how many stored exchanges are replayed into the
// conversation window. Each record is two turns, so five records fill the
// ten-turn window the resolver forwards.
const historyRecords = 5

// Resolver answers a single query. It always returns a string.
type Resolver interface {
	Resolve(ctx context.Context, query, topicID string, history []entities.ChatMessage) string
}

// Server is the HTTP server for the assistant API.
type Server struct {
	resolver Resolver
	catalog  ports.TopicCatalog
	chatLog  ports.ChatLogStore
	users    ports.UserStore
	addr     string
}

// NewServer creates a new HTTP server.
func NewServer(resolver Resolver, catalog ports.TopicCatalog, chatLog ports.ChatLogStore, users ports.UserStore, addr string) *Server {
	return &Server{
		resolver: resolver,
		catalog:  catalog,
		chatLog:  chatLog,
		users:    users,
		addr:     addr,
	}
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(loggingMiddleware(s.Handler())),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // completion calls can be slow
	}

	slog.Info("campus assistant server starting", slog.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// Handler returns the route mux without middleware (exported for tests).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/topics", s.handleTopics)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

type chatRequest struct {
	Username string `json:"username"`
	Query    string `json:"query"`
	Topic    string `json:"topic"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// handleChat resolves one query. The answer is always 200 with text; the
// resolver absorbs every failure kind into a fixed reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	history := s.loadHistory(r.Context(), req.Username)
	answer := s.resolver.Resolve(r.Context(), req.Query, req.Topic, history)

	if req.Username != "" {
		_, err := s.chatLog.Append(r.Context(), entities.ChatRecord{
			Username: req.Username,
			Query:    req.Query,
			Response: answer,
			Topic:    req.Topic,
		})
		if err != nil {
			// The answer does not depend on the sink's success.
			slog.Warn("chat log append failed", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, chatResponse{Answer: answer})
}

// loadHistory replays the user's recent exchanges as conversation turns,
// oldest first.
func (s *Server) loadHistory(ctx context.Context, username string) []entities.ChatMessage {
	if username == "" {
		return nil
	}
	records, err := s.chatLog.Recent(ctx, username, historyRecords)
	if err != nil {
		slog.Warn("chat history load failed", slog.String("error", err.Error()))
		return nil
	}

	history := make([]entities.ChatMessage, 0, len(records)*2)
	for i := len(records) - 1; i >= 0; i-- {
		history = append(history,
			entities.ChatMessage{Role: entities.RoleUser, Content: records[i].Query},
			entities.ChatMessage{Role: entities.RoleAssistant, Content: records[i].Response},
		)
	}
	return history
}

type topicInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	defs := s.catalog.List()
	topics := make([]topicInfo, len(defs))
	for i, def := range defs {
		topics[i] = topicInfo{ID: def.ID, DisplayName: def.DisplayName, Description: def.Description}
	}
	writeJSON(w, topics)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Username required", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.chatLog.Recent(r.Context(), username, limit)
	if err != nil {
		http.Error(w, "History unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.users.Create(r.Context(), req.Username, req.Password)
	if errors.Is(err, userstore.ErrUserExists) {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ok, err := s.users.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "Verification failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
