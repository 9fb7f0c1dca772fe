package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/config"
	"github.com/choosing-sucks/gateway/internal/handler"
	"github.com/choosing-sucks/gateway/internal/middleware"
	"github.com/choosing-sucks/gateway/internal/ratelimit"
	"github.com/choosing-sucks/gateway/internal/repository"
	"github.com/choosing-sucks/gateway/internal/service"
	"github.com/choosing-sucks/gateway/internal/storage"
	"github.com/choosing-sucks/gateway/internal/upstream/anthropic"
	"github.com/choosing-sucks/gateway/internal/upstream/geocoding"
	"github.com/choosing-sucks/gateway/internal/upstream/places"
	"github.com/choosing-sucks/gateway/internal/upstream/supabase"
	"github.com/choosing-sucks/gateway/internal/upstream/watchmode"
)

const (
	logRetentionDays     = 30
	logRetentionInterval = 24 * time.Hour
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *storage.RedisClient
	postgres *storage.Postgres
	limiters map[string]ratelimit.Limiter

	analyticsService *service.AnalyticsService
	retentionStop    chan struct{}

	geocodeHandler   *handler.GeocodeHandler
	placesHandler    *handler.PlacesHandler
	chatHandler      *handler.ChatHandler
	edgeHandler      *handler.EdgeHandler
	byoHandler       *handler.BYOHandler
	titlesHandler    *handler.TitlesHandler
	statsHandler     *handler.StatsHandler
	analyticsHandler *handler.AnalyticsHandler

	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg,
		redis:    redis,
		postgres: postgres,
		limiters: make(map[string]ratelimit.Limiter),
	}

	s.initializeUpstreams()
	s.initializeLimiters()
	s.setupMiddleware()
	s.setupRoutes()
	s.startLogRetention()

	return s
}

// initializeUpstreams builds one adapter per configured credential. Missing
// credentials leave the adapter nil and the handler answers with a generic
// configuration error, so a partially configured gateway still starts.
func (s *Server) initializeUpstreams() {
	creds := s.config.Upstreams

	var googleGeocoding *geocoding.Client
	var googlePlaces *places.Client
	if creds.GoogleMapsAPIKey != "" {
		googleGeocoding = geocoding.NewClient(creds.GoogleMapsAPIKey)
		googlePlaces = places.NewClient(creds.GoogleMapsAPIKey)
	} else {
		log.Println("Warning: GOOGLE_MAPS_API_KEY not set, geocoding and places routes disabled")
	}

	var anthropicClient *anthropic.Client
	if creds.AnthropicAPIKey != "" {
		anthropicClient = anthropic.NewClient(creds.AnthropicAPIKey)
	} else {
		log.Println("Warning: ANTHROPIC_API_KEY not set, chat routes disabled")
	}

	var watchmodeClient *watchmode.Client
	if creds.WatchmodeAPIKey != "" {
		watchmodeClient = watchmode.NewClient(creds.WatchmodeAPIKey)
	} else {
		log.Println("Warning: WATCHMODE_API_KEY not set, title discovery disabled")
	}

	supabaseClient, err := supabase.NewClient(creds.SupabaseURL, creds.SupabaseAnonKey, creds.SupabaseServiceRoleKey)
	if err != nil {
		log.Printf("Warning: Supabase not configured, edge function routes disabled: %v", err)
	}

	usageRepo := repository.NewUsageRepository(s.postgres)
	openaiService := service.NewOpenAIService(creds.OpenAIAPIKey, usageRepo)
	if !openaiService.Enabled() {
		log.Println("Warning: OPENAI_API_KEY not set, BYO enhancement disabled")
	}

	logRepo := repository.NewRequestLogRepository(s.postgres)
	middleware.InitRequestLogger(logRepo, 1000)

	s.geocodeHandler = handler.NewGeocodeHandler(supabaseClient, googleGeocoding)
	s.placesHandler = handler.NewPlacesHandler(supabaseClient, googlePlaces)
	s.chatHandler = handler.NewChatHandler(anthropicClient)
	s.edgeHandler = handler.NewEdgeHandler(supabaseClient)
	s.byoHandler = handler.NewBYOHandler(openaiService, googlePlaces, s.redis)
	s.titlesHandler = handler.NewTitlesHandler(watchmodeClient)
	s.statsHandler = handler.NewStatsHandler(service.NewStatsService(usageRepo))
	s.analyticsService = service.NewAnalyticsService(logRepo)
	s.analyticsHandler = handler.NewAnalyticsHandler(s.analyticsService)
}

// logCleaner is the part of AnalyticsService the retention loop uses.
type logCleaner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

func (s *Server) startLogRetention() {
	s.retentionStop = make(chan struct{})
	go runLogRetention(s.analyticsService, logRetentionInterval, logRetentionDays, s.retentionStop)
}

// runLogRetention deletes request logs past the retention period on every
// tick until stop closes. Failures are logged and retried on the next tick.
func runLogRetention(cleaner logCleaner, interval time.Duration, retentionDays int, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := cleaner.CleanupOldLogs(context.Background(), retentionDays)
			if err != nil {
				log.Printf("Request log cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("Request log cleanup removed %d rows", deleted)
			}
		case <-stop:
			return
		}
	}
}

func (s *Server) initializeLimiters() {
	for _, route := range s.config.Routes {
		if route.MaxRequests <= 0 || route.WindowSeconds <= 0 {
			log.Printf("Warning: route %s has no usable rate limit, skipping", route.Path)
			continue
		}
		window := time.Duration(route.WindowSeconds) * time.Second
		s.limiters[route.Path] = ratelimit.NewLimiter(s.config.RateLimit.Backend, s.redis, route.MaxRequests, window)
		log.Printf("Rate limit for %s: %d requests per %s (%s)", route.Path, route.MaxRequests, window, s.config.RateLimit.Backend)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogger())
}

// limited wraps a route handler with its configured rate limiter. The limit
// runs before any body validation, so over-limit requests are rejected even
// when malformed.
func (s *Server) limited(path string, h gin.HandlerFunc) []gin.HandlerFunc {
	if limiter, ok := s.limiters[path]; ok {
		return []gin.HandlerFunc{middleware.RateLimit(limiter), h}
	}
	return []gin.HandlerFunc{h}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/geocode", s.limited("/api/geocode", s.geocodeHandler.Geocode)...)
		api.POST("/reverse-geocode", s.limited("/api/reverse-geocode", s.geocodeHandler.ReverseGeocode)...)
		api.POST("/places-search", s.limited("/api/places-search", s.placesHandler.Search)...)
		api.POST("/discover-places", s.limited("/api/discover-places", s.placesHandler.Discover)...)
		api.POST("/chat", s.limited("/api/chat", s.chatHandler.Chat)...)
		api.POST("/chat-extract-filters", s.limited("/api/chat-extract-filters", s.chatHandler.ExtractFilters)...)
		api.POST("/discover-titles", s.limited("/api/discover-titles", s.titlesHandler.Discover)...)

		// Deliberately unlimited: BYO enhancement is throttled by its cache,
		// match polling and analytics batches by their edge functions.
		api.POST("/byo-enhance", s.byoHandler.Enhance)
		api.POST("/check-match", s.edgeHandler.CheckMatch)
		api.POST("/analytics", s.edgeHandler.Analytics)

		api.GET("/cost-stats", s.statsHandler.CostStats)
		api.GET("/openai-stats", s.statsHandler.OpenAIStats)
	}

	admin := s.router.Group("/admin")
	{
		admin.GET("/analytics", s.analyticsHandler.GetSummary)
		admin.GET("/logs", s.analyticsHandler.GetLogs)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	// A gateway without Redis runs on in-process limits, so nil is healthy.
	redisHealthy := true
	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			redisHealthy = false
			log.Printf("Redis health check failed: %v", err)
		}
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "choosing-sucks-gateway",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting gateway on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.retentionStop != nil {
		close(s.retentionStop)
		s.retentionStop = nil
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
