package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/lms/internal/config"
	"github.com/saltyorg/lms/internal/database"
	"github.com/saltyorg/lms/internal/web/handlers"
	"github.com/saltyorg/lms/internal/web/middleware"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pageTemplates lists the page templates parsed with the base layout
var pageTemplates = []string{
	"index.html",
	"course.html",
	"create_course.html",
	"not_found.html",
}

// Server represents the web server
type Server struct {
	db        *database.DB
	cfg       *config.Config
	router    *chi.Mux
	templates map[string]*template.Template
}

// NewServer creates a new web server
func NewServer(db *database.DB, cfg *config.Config) (*Server, error) {
	s := &Server{
		db:     db,
		cfg:    cfg,
		router: chi.NewRouter(),
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// loadTemplates loads all HTML templates.
// Each page template is parsed with the base template and partials.
func loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pageTemplates))

	for _, page := range pageTemplates {
		tmpl, err := template.New("").ParseFS(templatesFS,
			"templates/base.html",
			"templates/partials/*.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return templates, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() error {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Timeouts.Request))

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	h := handlers.New(s.db, s.templates)

	r.Get("/healthz", h.Health)

	// Pages
	r.Get("/", h.CourseList)
	r.Get("/courses/{id}", h.CourseDetail)
	r.Get("/create_course", h.CourseNew)
	r.Post("/create_course", h.CourseCreate)
	r.Post("/enroll", h.Enroll)
	r.Post("/select_course", h.SelectCourse)
	r.Get("/seed", h.Seed)

	// JSON API
	r.Route("/api/courses", func(r chi.Router) {
		r.Get("/", h.APICourseList)
		r.Post("/", h.APICourseCreate)
		r.Get("/{id}/students", h.APICourseStudents)
	})

	return nil
}

// Start starts the web server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr()

	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.cfg.Timeouts.Read,
		IdleTimeout: s.cfg.Timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
