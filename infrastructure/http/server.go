package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"miragepos/frontend/login"
	sessioncontext "miragepos/frontend/shared/context"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/notify"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/session"
	"miragepos/infrastructure/sqlite"
)

// Options are the tunables the server takes from configuration.
type Options struct {
	SessionTTL      time.Duration
	SecureCookies   bool
	LoginRateLimit  int
	ShutdownTimeout time.Duration
	AdminUsername   string
	AdminPassword   string
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux
	cancel context.CancelFunc

	Options      Options
	DB           *sqlite.DB
	SessionCache *cache.UserSessionCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Catalog      *cache.CatalogCache
	Notifier     notify.Notifier
	Alloc        *sequence.Allocator
}

// NewServer creates a new http server.
func NewServer(addr string, db *sqlite.DB, sessionCache *cache.UserSessionCache, r *rbac.Rbac, rbacCache *cache.RbacRolesCache, notifier notify.Notifier, opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 2 * time.Second
	}
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		Options:      opts,
		DB:           db,
		SessionCache: sessionCache,
		RbacCache:    rbacCache,
		Rbac:         r,
		Catalog:      cache.NewCatalogCache(),
		Notifier:     notifier,
		Alloc:        sequence.New(db),
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      !opts.SecureCookies,
	})
	s.router.Use(secureMiddleware.Handler)

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Handle root requests - check auth status but don't require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.SessionCache.FindSessionBySessionToken(session.TokenFromRequest(r)); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, login.HomePath, http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Route("/tasker/api", func(r chi.Router) {
			r.Use(s.AuthenticateMiddleware)
			r.Use(s.RefreshMiddleware)
			s.RegisterFrontendRoutes(r)
			s.RegisterAdminRoutes(r)
		})
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AuthenticateMiddleware loads the in-memory session and applies RBAC checks.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r)
		if token == "" {
			respond.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		sess, ok := s.SessionCache.FindSessionBySessionToken(token)
		if !ok {
			slog.Warn("session not found in cache", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.SetCookie(w, session.ClearCookie(s.Options.SecureCookies))
			respond.Problem(w, http.StatusUnauthorized, "Unauthorized", "session expired")
			return
		}

		if !s.Rbac.Allowed(sess.UserRoles, r.Method, r.URL.Path) {
			slog.Warn("rbac denied", slog.String("username", sess.User.Username), slog.String("method", r.Method), slog.String("path", r.URL.Path))
			respond.Problem(w, http.StatusForbidden, "Forbidden", "administrator privileges required")
			return
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RefreshMiddleware broadcasts the refresh hint after every successful
// mutating request and drops the local catalog copy.
func (s *Server) RefreshMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || isPreview(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if status := ww.Status(); status == 0 || status >= http.StatusBadRequest {
			return
		}
		s.Catalog.Invalidate()
		if s.Notifier == nil {
			return
		}
		if err := s.Notifier.Publish(context.WithoutCancel(r.Context())); err != nil {
			slog.Error("refresh hint not sent", slog.String("path", r.URL.Path), slog.Any("err", err))
		}
	})
}

// Previews are POSTs that never write.
func isPreview(path string) bool {
	return strings.HasSuffix(path, "/totals") ||
		strings.HasSuffix(path, "/plan") ||
		strings.HasSuffix(path, "/import-lines")
}

// Start starts the HTTP server and the background cache and session upkeep.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.startBackground(ctx)
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http serve failed", slog.Any("err", err))
		}
	}()
	return nil
}

func (s *Server) startBackground(ctx context.Context) {
	if s.Notifier != nil {
		go s.Catalog.Follow(s.Notifier.Subscribe(ctx))
	}
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.SessionCache.PurgeExpired(now); n > 0 {
					slog.Info("expired sessions purged", slog.Int("count", n))
				}
			}
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Options.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
