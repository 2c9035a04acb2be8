// Package api is the REST surface: task CRUD, the chat endpoint and
// conversation history, mounted under a configurable prefix.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/HendryAvila/taskchat/internal/agent"
	"github.com/HendryAvila/taskchat/internal/config"
	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// HTTP server timeouts. Writes must outlast the agent timeout.
const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 90 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// TaskStore is the task persistence the CRUD handlers use.
type TaskStore interface {
	ListTasks(ctx context.Context, owner string, filter store.StatusFilter) ([]*store.Task, error)
	AddTask(ctx context.Context, owner, title string, description *string) (*store.Task, error)
	ToggleTask(ctx context.Context, owner string, id int64) (*store.Task, error)
	UpdateTask(ctx context.Context, owner string, id int64, title, description *string) (*store.Task, error)
	DeleteTask(ctx context.Context, owner string, id int64) error
}

// ConversationReader reads conversations for ownership checks and history.
type ConversationReader interface {
	GetConversation(ctx context.Context, owner string, id int64) (*store.Conversation, error)
	ListMessages(ctx context.Context, owner string, conversationID int64) ([]*store.Message, error)
}

// Chatter runs chat turns. *agent.Orchestrator implements it.
type Chatter interface {
	Turn(ctx context.Context, req agent.TurnRequest) (*agent.TurnResult, error)
}

// Server is the HTTP API server.
type Server struct {
	cfg           *config.Config
	tasks         TaskStore
	conversations ConversationReader
	chat          Chatter
	logger        *slog.Logger
	router        chi.Router
}

// NewServer creates a server with all routes registered.
func NewServer(cfg *config.Config, tasks TaskStore, conversations ConversationReader, chat Chatter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:           cfg,
		tasks:         tasks,
		conversations: conversations,
		chat:          chat,
		logger:        logger.With("component", "http"),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  originAllowed(s.cfg.CORSOrigins, s.cfg.CORSOriginPattern),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.handleHealth)

	api := func(r chi.Router) {
		r.Route("/{user_id}", func(r chi.Router) {
			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleCreateTask)
			r.Put("/tasks/{task_id}", s.handleUpdateTask)
			r.Delete("/tasks/{task_id}", s.handleDeleteTask)
			r.Patch("/tasks/{task_id}/complete", s.handleToggleTask)

			r.Post("/chat", s.handleChat)
			r.Get("/conversations/{conversation_id}/messages", s.handleListMessages)
		})
	}
	if prefix := s.cfg.APIPrefix; prefix != "" && prefix != "/" {
		r.Route(prefix, api)
	} else {
		r.Group(api)
	}

	s.router = r
}

// Run serves on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.HTTPAddr, "prefix", s.cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// originAllowed accepts the listed origins plus anything matching pattern.
func originAllowed(origins []string, pattern string) func(*http.Request, string) bool {
	var re *regexp.Regexp
	if pattern != "" {
		re = regexp.MustCompile(pattern)
	}
	return func(_ *http.Request, origin string) bool {
		if slices.Contains(origins, origin) {
			return true
		}
		return re != nil && re.MatchString(origin)
	}
}
