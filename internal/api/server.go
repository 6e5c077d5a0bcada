// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

// Service interfaces for dependency injection and testing

// DetectionServiceInterface defines wallet aggregation operations.
type DetectionServiceInterface interface {
	Detect(ctx context.Context, chain types.ChainID, filter types.FilterType, skipDemo bool) (*service.DetectionResult, error)
}

// SpendingServiceInterface defines spending analysis operations.
type SpendingServiceInterface interface {
	Analyze(ctx context.Context, address string, chain types.ChainID, window service.Window) (*models.SpendingProfile, error)
}

// RegistrationServiceInterface defines user registration operations.
type RegistrationServiceInterface interface {
	Register(ctx context.Context, username, walletAddress string, chain types.ChainID) (*models.Registration, error)
	Lookup(ctx context.Context, username string) (*models.Registration, error)
}

// MarketServiceInterface defines market data operations.
type MarketServiceInterface interface {
	History(ctx context.Context, coin string, days int) []types.PricePoint
	TrendSignal(ctx context.Context, coin string, days int) (service.MarketSignal, float64)
}

// RecommenderServiceInterface defines trade recommendation operations.
type RecommenderServiceInterface interface {
	Recommend(ctx context.Context, walletAddress string, chain types.ChainID) (*service.TradeAdvice, error)
}

// TopSpenderServiceInterface defines top-spender scan operations.
type TopSpenderServiceInterface interface {
	Scan(ctx context.Context, chain types.ChainID, day string) (*models.TopSpender, error)
	ForDay(ctx context.Context, day string) (*models.TopSpender, error)
}

// WalletReader lists persisted wallets.
type WalletReader interface {
	ListByChain(ctx context.Context, chain types.ChainID, limit int) ([]*models.Wallet, error)
}

// ProfileReader fetches persisted spending profiles.
type ProfileReader interface {
	Get(ctx context.Context, walletAddress string) (*models.SpendingProfile, error)
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	detection     DetectionServiceInterface
	spending      SpendingServiceInterface
	registrations RegistrationServiceInterface
	market        MarketServiceInterface
	recommender   RecommenderServiceInterface
	topSpenders   TopSpenderServiceInterface
	wallets       WalletReader
	profiles      ProfileReader
	alerts        *service.AlertService
	config        *ServerConfig
	logger        *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond int
	Burst             int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	detection DetectionServiceInterface,
	spending SpendingServiceInterface,
	registrations RegistrationServiceInterface,
	market MarketServiceInterface,
	recommender RecommenderServiceInterface,
	topSpenders TopSpenderServiceInterface,
	wallets WalletReader,
	profiles ProfileReader,
	alerts *service.AlertService,
	logger *logging.Logger,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		detection:     detection,
		spending:      spending,
		registrations: registrations,
		market:        market,
		recommender:   recommender,
		topSpenders:   topSpenders,
		wallets:       wallets,
		profiles:      profiles,
		alerts:        alerts,
		config:        config,
		logger:        logger.WithField("component", "api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/wallets/detect", s.handleDetectWallets).Methods("POST")
	api.HandleFunc("/wallets", s.handleListWallets).Methods("GET")

	api.HandleFunc("/spending/analyze", s.handleAnalyzeSpending).Methods("POST")
	api.HandleFunc("/spending/{address}", s.handleGetSpendingProfile).Methods("GET")

	api.HandleFunc("/users/register", s.handleRegisterUser).Methods("POST")
	api.HandleFunc("/users/{username}", s.handleGetUser).Methods("GET")

	api.HandleFunc("/market/{coin}/history", s.handleMarketHistory).Methods("GET")
	api.HandleFunc("/market/{coin}/risk", s.handleMarketRisk).Methods("GET")
	api.HandleFunc("/market/{coin}/signal", s.handleMarketSignal).Methods("GET")

	api.HandleFunc("/recommendation", s.handleRecommendation).Methods("GET")

	api.HandleFunc("/topspender/scan", s.handleTopSpenderScan).Methods("POST")
	api.HandleFunc("/topspender/{day}", s.handleTopSpenderForDay).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-insight",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler tree. Used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}
