package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/conambiente/conambiente-backend/internal/auth"
	"github.com/conambiente/conambiente-backend/internal/mail"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	News        NewsStore
	Projects    ProjectStore
	Subscribers SubscriberStore
	Announcer   Announcer

	Auth       *auth.Authenticator
	AdminEmail string
	Uploader   *upload.Uploader
	Mail       mail.Sender
	Composer   *mail.Composer
	Recipients Recipients

	AllowedOrigins []string
	DBTimeout      time.Duration
	Health         map[string]Pinger
	QueueDepth     QueueDepthFunc
	Logger         *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(d.AllowedOrigins))

	loginHandler := NewLoginHandler(d.Auth, d.AdminEmail, d.Logger)
	newsHandler := NewNewsHandler(d.News, d.Uploader, d.Announcer, d.DBTimeout, d.Logger)
	projectHandler := NewProjectHandler(d.Projects, d.Uploader, d.DBTimeout, d.Logger)
	newsletterHandler := NewNewsletterHandler(d.Subscribers, d.DBTimeout, d.Logger)
	formHandler := NewFormHandler(d.Mail, d.Composer, d.Uploader, d.Recipients, d.Logger)

	r.Get("/", bannerHandler)
	r.Get("/health", HealthHandler(d.Health, d.QueueDepth))
	r.Handle(upload.URLPrefix+"*", http.StripPrefix(upload.URLPrefix, upload.FileServer(d.Uploader.Store(), d.Logger)))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", loginHandler.Login)

		r.Route("/noticias", func(r chi.Router) {
			r.Get("/", newsHandler.List)
			r.Get("/{id}", newsHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(d.Auth.Middleware)
				r.Post("/", newsHandler.Create)
				r.Put("/{id}", newsHandler.Update)
				r.Delete("/{id}", newsHandler.Delete)
			})
		})

		r.Route("/proyectos", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Get("/departamento/{departamento}", projectHandler.ByDepartment)
			r.Get("/{id}", projectHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(d.Auth.Middleware)
				r.Post("/", projectHandler.Create)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})
		})

		r.Post("/boletin/suscribir", newsletterHandler.Subscribe)
		r.Post("/boletin/desuscribir", newsletterHandler.Unsubscribe)

		r.Post("/contacto", formHandler.Contact)
		r.Post("/pqr", formHandler.PQR)
		r.Post("/trabaja-nosotros", formHandler.JobApplication)
	})

	return r
}

// corsMiddleware allows the configured origins; "*" allows any.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(allowed, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(allowed, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
