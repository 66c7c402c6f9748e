// file: internal/router/router.go
package router

import (
	"net/http"
	"time"

	"hackspeech/internal/config"
	"hackspeech/internal/handlers/api/v1/auth"
	"hackspeech/internal/handlers/api/v1/chat"
	"hackspeech/internal/handlers/api/v1/detection"
	"hackspeech/internal/handlers/api/v1/gamification"
	"hackspeech/internal/handlers/api/v1/guardian"
	"hackspeech/internal/handlers/api/v1/realtime"
	"hackspeech/internal/handlers/api/v1/stats"
	"hackspeech/internal/handlers/api/v1/users"
	"hackspeech/internal/middleware"
	"hackspeech/internal/monitoring"
	"hackspeech/internal/response"
	"hackspeech/internal/services"

	_ "hackspeech/internal/docs" // registers the swagger spec

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies groups everything the HTTP surface needs
type Dependencies struct {
	Services  *services.ServiceCollection
	Hub       realtime.ConnectionServer
	Dashboard *monitoring.Dashboard
	Builder   *response.Builder
	Config    *config.Config
	Logger    *zap.Logger
}

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(deps *Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	sc := deps.Services

	r := chi.NewRouter()

	r.Use(
		middleware.RequestID(logger),
		middleware.Metrics,
		middleware.StructuredLogging(nil),
		middleware.Recovery(&middleware.RecoveryConfig{
			MaxStackFrames: middleware.DefaultRecoveryConfig().MaxStackFrames,
			ExposePanic:    !cfg.IsProduction(),
		}, logger),
		middleware.SecureHeaders(cfg.IsProduction()),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)),
		response.Middleware(deps.Builder),
	)

	r.NotFound(deps.Builder.WriteNotFound)
	r.MethodNotAllowed(deps.Builder.WriteMethodNotAllowed)

	// ===============================
	// PUBLIC ENDPOINTS
	// ===============================

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		deps.Builder.WriteSuccess(w, r, map[string]string{
			"message": "Hack Speech API is running",
			"status":  "ok",
		})
	})
	r.Get("/health", healthHandler(deps.Dashboard, deps.Builder))
	r.Method(http.MethodGet, "/metrics", monitoring.Handler())

	swaggerCfg := middleware.DefaultSwaggerConfig()
	swaggerCfg.Username = cfg.Server.SwaggerUsername
	swaggerCfg.Password = cfg.Server.SwaggerPassword
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Handle("/swagger/*", middleware.SwaggerHandler(swaggerCfg))

	r.Route("/api/v1", func(r chi.Router) {
		addAPIv1Routes(r, deps)
	})

	logger.Info("Router setup completed",
		zap.Int("allowed_origins", len(cfg.Server.AllowedOrigins)),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("llm_configured", sc.LLM != nil && sc.LLM.Configured()),
	)

	return r
}

// addAPIv1Routes mounts the versioned JSON API
func addAPIv1Routes(r chi.Router, deps *Dependencies) {
	cfg := deps.Config
	sc := deps.Services
	rb := deps.Builder
	logger := deps.Logger

	authMiddleware := middleware.NewAuthMiddleware(sc.Tokens, logger.Named("auth_middleware"))
	limiter := middleware.NewRateLimiter(sc.Cache, &middleware.RateLimiterConfig{
		Enabled:  cfg.RateLimit.Enabled,
		Limit:    cfg.RateLimit.RequestsPerMinute,
		Window:   time.Minute,
		FailOpen: true,
	}, logger.Named("rate_limiter"))

	authController := auth.NewAuthController(sc.AuthService, rb, logger)
	userController := users.NewUserController(sc.UserService, rb, logger, cfg.Cloudinary.MaxFileSize)
	detectionController := detection.NewDetectionController(sc.DetectionService, rb, logger, cfg.LLM.Timeout+5*time.Second)
	statsController := stats.NewStatsController(sc.StatsService, rb, logger)
	gamificationController := gamification.NewGamificationController(sc.GamificationService, rb, logger)
	guardianController := guardian.NewGuardianController(sc.GuardianService, rb, logger)
	chatController := chat.NewChatController(sc.ChatService, rb, logger, cfg.LLM.Timeout+5*time.Second)

	// ===============================
	// PUBLIC AUTH ENDPOINTS
	// ===============================

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authController.Register)
		r.Post("/login", authController.Login)
		r.Post("/google", authController.GoogleLogin)
		r.Get("/google/url", authController.GoogleAuthURL)
	})

	// ===============================
	// AUTHENTICATED ENDPOINTS
	// ===============================

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userController.GetMe)
			r.Put("/me", userController.UpdateMe)
			r.Post("/me/avatar", userController.UploadAvatar)
		})

		r.Route("/detection", func(r chi.Router) {
			r.With(limiter.Limit("analyze")).Post("/analyze", detectionController.Analyze)
			r.With(limiter.Limit("reformulate")).Post("/reformulate", detectionController.Reformulate)
			r.Get("/history", detectionController.History)
		})

		r.Get("/stats/dashboard", statsController.Dashboard)

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/leaderboard", gamificationController.Leaderboard)
			r.Get("/badges", gamificationController.Badges)
			r.Get("/challenge/current", gamificationController.CurrentChallenge)
		})

		r.Route("/guardian", func(r chi.Router) {
			r.Get("/children", guardianController.Children)
			r.Post("/link", guardianController.Link)
			r.Get("/child/{childID}/stats", guardianController.ChildStats)
			r.Get("/me/code", guardianController.MyCode)
		})

		r.Route("/chat", func(r chi.Router) {
			r.With(limiter.Limit("chat")).Post("/message", chatController.SendMessage)
			r.Get("/history", chatController.History)
			r.Delete("/clear", chatController.Clear)
		})

		if deps.Hub != nil {
			realtimeController := realtime.NewRealtimeController(deps.Hub, rb, logger)
			r.Get("/ws", realtimeController.Connect)
		}
	})
}
