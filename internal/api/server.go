package api

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medcheck/api/internal/config"
	"github.com/medcheck/api/internal/models"
	"github.com/medcheck/api/internal/services"
)

// UserService is the user-store surface the API consumes
type UserService interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	GetHistory(ctx context.Context, identity models.Identity) ([]models.HistoryEntry, error)
	ToUserResponse(user *models.User) *models.UserResponse
}

// AuthService is the credential/session surface the API consumes
type AuthService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) error
	GenerateToken(userID uuid.UUID, email, name string) (string, error)
	ValidateToken(tokenString string) (*services.Claims, error)
	GenerateResetToken() (string, time.Time, error)
}

// AnalysisService runs the clinical-query analysis pipeline
type AnalysisService interface {
	AnalyzeInteractions(ctx context.Context, identity models.Identity, req *models.InteractionRequest) (*models.InteractionAnalysis, error)
	CheckSuitability(ctx context.Context, identity models.Identity, req *models.SuitabilityRequest) (*models.SuitabilityAnalysis, error)
}

// EmailService delivers password-reset mail
type EmailService interface {
	SendResetEmail(email, resetURL string) error
}

// Server represents the API server
type Server struct {
	config          *config.Config
	logger          *zap.Logger
	userService     UserService
	authService     AuthService
	analysisService AnalysisService
	emailService    EmailService
	router          *router.Router
	server          *fasthttp.Server
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userService UserService,
	authService AuthService,
	analysisService AnalysisService,
	emailService EmailService,
) *Server {
	s := &Server{
		config:          cfg,
		logger:          logger,
		userService:     userService,
		authService:     authService,
		analysisService: analysisService,
		emailService:    emailService,
		router:          router.New(),
	}

	s.setupRoutes()
	s.setupServer()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GlobalOPTIONS = s.corsHandler

	// Public routes (no authentication required)
	s.router.POST("/api/auth/signup", s.withMiddleware(s.signupHandler))
	s.router.POST("/api/auth/login", s.withMiddleware(s.loginHandler))
	s.router.POST("/api/auth/forgot-password", s.withMiddleware(s.forgotPasswordHandler))
	s.router.POST("/api/auth/reset-password", s.withMiddleware(s.resetPasswordHandler))

	// Protected routes (authentication required)
	s.router.POST("/api/analyze-interactions", s.withMiddleware(s.authMiddleware(s.analyzeInteractionsHandler)))
	s.router.POST("/api/check-suitability", s.withMiddleware(s.authMiddleware(s.checkSuitabilityHandler)))
	s.router.GET("/api/user/history", s.withMiddleware(s.authMiddleware(s.historyHandler)))

	// Health check endpoint
	s.router.GET("/api/health", s.withMiddleware(s.healthHandler))
}

// setupServer configures the FastHTTP server
func (s *Server) setupServer() {
	// No WriteTimeout: analysis requests block on the inference
	// endpoint, which has no bounded latency.
	s.server = &fasthttp.Server{
		Handler:                       s.router.Handler,
		Name:                          "MedCheck-API",
		ReadTimeout:                   10 * time.Second,
		IdleTimeout:                   60 * time.Second,
		MaxRequestBodySize:            1024 * 1024, // 1MB
		DisableHeaderNamesNormalizing: true,
		NoDefaultServerHeader:         true,
		NoDefaultDate:                 true,
		NoDefaultContentType:          true,
	}
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.config.Server.Address),
		zap.String("environment", s.config.Server.Environment))

	return s.server.ListenAndServe(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.ShutdownWithContext(ctx)
}

// withMiddleware wraps handlers with common middleware
func (s *Server) withMiddleware(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return s.loggingMiddleware(
		s.securityMiddleware(
			s.rateLimitMiddleware(handler),
		),
	)
}

// corsHandler handles CORS preflight requests
func (s *Server) corsHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetStatusCode(fasthttp.StatusOK)
}

// setCORSHeaders sets CORS headers
func (s *Server) setCORSHeaders(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	ctx.Response.Header.Set("Access-Control-Max-Age", "86400")
}

// healthHandler handles health check requests
func (s *Server) healthHandler(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)

	response := `{"status":"healthy","service":"medcheck-api","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`
	ctx.SetBodyString(response)
}
