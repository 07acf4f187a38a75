// Package api serves the reader's HTTP API: content, preferences, verse
// search, sign-in, bookmarks, last-read positions, audio players and the
// notification stream.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tilawahapp/tilawah-server/internal/playback"
	"github.com/tilawahapp/tilawah-server/internal/quran"
	"github.com/tilawahapp/tilawah-server/internal/ratelimit"
	"github.com/tilawahapp/tilawah-server/internal/search"
	"github.com/tilawahapp/tilawah-server/internal/service"
	"github.com/tilawahapp/tilawah-server/internal/sse"
	"github.com/tilawahapp/tilawah-server/internal/validation"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

const streamPath = "/api/v1/notifications/stream"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the handlers call.
type Services struct {
	Quran     *quran.Manager
	Search    *search.VerseIndex
	Sessions  *service.SessionService
	Bookmarks *service.BookmarkService
	LastRead  *service.LastReadService
	Players   *playback.Registry
	Events    *sse.Manager
	Validator *validation.Validator
	DB        Pinger
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// SignInLimiter limits /auth/* per client IP. Nil disables limiting.
	SignInLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	quran         *quran.Manager
	search        *search.VerseIndex
	sessions      *service.SessionService
	bookmarks     *service.BookmarkService
	lastRead      *service.LastReadService
	players       *playback.Registry
	events        *sse.Manager
	validator     *validation.Validator
	db            Pinger
	signInLimiter *ratelimit.KeyedRateLimiter

	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		quran:         services.Quran,
		search:        services.Search,
		sessions:      services.Sessions,
		bookmarks:     services.Bookmarks,
		lastRead:      services.LastRead,
		players:       services.Players,
		events:        services.Events,
		validator:     services.Validator,
		db:            services.DB,
		signInLimiter: opts.SignInLimiter,
		router:        chi.NewRouter(),
		logger:        logger,
	}
	if s.validator == nil {
		s.validator = validation.New()
	}

	s.setupMiddleware(opts.AllowedOrigins)

	humaConfig := huma.DefaultConfig("Tilawah API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerContentRoutes()
	s.registerSearchRoutes()
	s.registerAuthRoutes()
	s.registerBookmarkRoutes()
	s.registerLastReadRoutes()
	s.registerPlayerRoutes()

	if s.events != nil {
		stream := sse.NewHandler(s.events, streamOwner, logger)
		s.router.Get(streamPath, stream.ServeHTTP)
	}

	return s
}

// streamOwner picks whose targeted events a stream receives: the signed-in
// reader, or the anonymous client that owns players.
func streamOwner(r *http.Request) string {
	if userID := userIDFrom(r.Context()); userID != "" {
		return userID
	}
	clientID := r.Header.Get("X-Client-ID")
	if clientID == "" {
		clientID = r.URL.Query().Get("client_id")
	}
	if clientID == "" {
		return ""
	}
	return anonymousOwnerPrefix + clientID
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-ID"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.authMiddleware)
}

// requestLogger logs one line per request at debug level, or warn for 5xx.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
