// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New opens the database, picks the mail and
// avatar backends from the config, and hands each layer only what it needs.
//
//	sqlite.DB → UserStore / ContactStore (repository interfaces)
//	          → AuthService / ContactService
//	          → UserHandler / ContactHandler → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/avatar"
	"github.com/sakif/contacts-api/internal/config"
	"github.com/sakif/contacts-api/internal/handler"
	"github.com/sakif/contacts-api/internal/mailer"
	"github.com/sakif/contacts-api/internal/middleware"
	sqliteRepo "github.com/sakif/contacts-api/internal/repository/sqlite"
	"github.com/sakif/contacts-api/internal/service"
)

// avatarURLPrefix is where locally stored avatars are served.
const avatarURLPrefix = "/avatars"

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	mail    mailer.Mailer
	avatars avatar.Store
	// avatarDir is set when avatars are stored on local disk.
	avatarDir string
}

// Option customises a Server built by New.
type Option func(*Server)

// WithMailer replaces the mailer chosen from the config.
func WithMailer(m mailer.Mailer) Option {
	return func(s *Server) { s.mail = m }
}

// WithAvatarStore replaces the avatar store chosen from the config.
func WithAvatarStore(st avatar.Store) Option {
	return func(s *Server) { s.avatars = st }
}

// New creates a Server from cfg.
//
// A database that cannot be opened is fatal: the caller should exit.
//
// Backends:
//   - mail goes through SendGrid when SENDGRID_API_KEY is set, otherwise it
//     is only logged.
//   - avatars go to S3 when AVATAR_S3_BUCKET is set, otherwise to
//     AVATAR_DIR, served under /avatars.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBURI)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupBackends(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupBackends() error {
	if s.mail == nil {
		if s.config.SendGridAPIKey != "" {
			sg, err := mailer.NewSendGrid(s.config.SendGridAPIKey, s.config.MailFrom, s.logger)
			if err != nil {
				return fmt.Errorf("creating mailer: %w", err)
			}
			s.mail = sg
		} else {
			s.logger.Warn("SENDGRID_API_KEY not set, verification emails are only logged")
			s.mail = mailer.NewLogMailer(s.logger)
		}
	}

	if s.avatars == nil {
		ac := s.config.Avatar
		if ac.S3Bucket != "" {
			store, err := avatar.NewS3Store(context.Background(), avatar.S3Options{
				Bucket:    ac.S3Bucket,
				Region:    ac.S3Region,
				Endpoint:  ac.S3Endpoint,
				AccessKey: ac.S3AccessKey,
				SecretKey: ac.S3SecretKey,
				PublicURL: ac.PublicURL,
			}, s.logger)
			if err != nil {
				return fmt.Errorf("creating S3 avatar store: %w", err)
			}
			s.avatars = store
		} else {
			store, err := avatar.NewDiskStore(ac.Dir, avatarURLPrefix, s.logger)
			if err != nil {
				return fmt.Errorf("creating avatar store: %w", err)
			}
			s.avatars = store
			s.avatarDir = store.Dir()
		}
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	POST   /users/register
//	POST   /users/login
//	POST   /users/logout                        bearer
//	GET    /users/current                       bearer
//	PATCH  /users/avatars                       bearer, multipart "avatar"
//	GET    /users/verify/{verificationToken}
//	POST   /users/verify
//	GET    /contacts                            bearer
//	POST   /contacts                            bearer
//	GET    /contacts/{contactId}                bearer
//	PUT    /contacts/{contactId}                bearer
//	DELETE /contacts/{contactId}                bearer
//	PATCH  /contacts/{contactId}/favorite       bearer
//	GET    /avatars/*                           local avatar files
//	GET    /healthz
//
// MIDDLEWARE ORDER MATTERS:
// CORS answers preflight requests before anything else runs. RequestID comes
// before Logger so every log line carries the id, and Recoverer sits inside
// Logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	users := s.db.Users()
	contacts := s.db.Contacts()

	policy := auth.RequireStoredToken
	if s.config.StatelessTokens {
		policy = auth.SignatureOnly
	}
	gate := auth.NewGate(tokens, users, policy, s.logger)
	requireAuth := auth.RequireAuth(gate)

	authService := service.NewAuthService(users, tokens, passwords, s.mail, s.avatars, s.config.PublicBaseURL, s.logger)
	contactService := service.NewContactService(contacts, s.logger)

	userHandler := handler.NewUserHandler(authService, s.config.Avatar.MaxBytes, s.logger)
	contactHandler := handler.NewContactHandler(contactService, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})

	if s.avatarDir != "" {
		fileServer := http.FileServer(filesOnly{http.Dir(s.avatarDir)})
		s.router.Handle(avatarURLPrefix+"/*", http.StripPrefix(avatarURLPrefix+"/", fileServer))
	}

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Get("/verify/{verificationToken}", userHandler.HandleVerify)
		r.Post("/verify", userHandler.HandleResendVerification)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", userHandler.HandleLogout)
			r.Get("/current", userHandler.HandleCurrent)
			r.Patch("/avatars", userHandler.HandleAvatar)
		})
	})

	s.router.Route("/contacts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", contactHandler.HandleList)
		r.Post("/", contactHandler.HandleCreate)
		r.Get("/{contactId}", contactHandler.HandleGet)
		r.Put("/{contactId}", contactHandler.HandleUpdate)
		r.Delete("/{contactId}", contactHandler.HandleDelete)
		r.Patch("/{contactId}/favorite", contactHandler.HandleFavorite)
	})

	return nil
}

// filesOnly is an http.FileSystem that hides directories, so the avatar
// file server answers 404 instead of listing every stored file name.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on the way out; tests that
// never call Start use it directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT or SIGTERM the server stops accepting connections, gives
// in-flight requests 30 seconds to finish, then closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBURI),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
