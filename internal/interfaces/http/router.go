package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/metals-portfolio-service/internal/application"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/keys"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/pricefeed"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/repository"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/token"
	"github.com/ipede/metals-portfolio-service/internal/interfaces/http/handlers"
	"github.com/ipede/metals-portfolio-service/internal/interfaces/http/middleware/auth"
	"github.com/ipede/metals-portfolio-service/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Router wires the full HTTP surface: OAuth2/OIDC endpoints, the collection
// API and the FDX read surface.
type Router struct {
	router       *chi.Mux
	db           *database.Postgres
	priceService *application.PriceServiceImpl
	oauthRepo    domain.OAuth2Repository
}

func NewRouter(
	db *database.Postgres,
	keyProvider *keys.Provider,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	issuer := token.NewIssuer(keyProvider, cfg, logger)
	verifier := token.NewVerifier(keyProvider, cfg, logger)

	userRepo := repository.NewUserRepository(db, logger)
	oauthRepo := repository.NewOAuth2Repository(db, logger)
	holdingRepo := repository.NewHoldingRepository(db, logger)
	priceRepo := repository.NewPriceRepository(db, logger)

	feed := pricefeed.NewClient(cfg, logger)

	userService := application.NewUserService(userRepo, logger)
	authService := application.NewAuthService(userRepo, issuer, cfg, logger)
	oauth2Service := application.NewOAuth2Service(oauthRepo, issuer, cfg, logger)
	tokenService := application.NewTokenService(oauthRepo, userRepo, issuer, cfg, logger)
	oidcService := application.NewOIDCService(userRepo, keyProvider, cfg, logger)
	priceService := application.NewPriceService(priceRepo, feed, logger)
	portfolioService := application.NewPortfolioService(holdingRepo, priceService, logger)

	authMiddleware := auth.NewMiddleware(verifier, userRepo, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	oauth2Handler := handlers.NewOAuth2Handler(oauth2Service, tokenService, logger)
	oidcHandler := handlers.NewOIDCHandler(oidcService, logger)
	clientHandler := handlers.NewClientHandler(oauthRepo, logger)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, priceService, logger)

	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(100, 200, 3*time.Minute)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// OIDC discovery lives at the issuer root
	router.Get("/.well-known/openid-configuration", oidcHandler.OpenIDConfiguration)
	router.Get("/.well-known/jwks.json", oidcHandler.JWKS)

	// OAuth2 endpoints. The authorize endpoint accepts both anonymous and
	// authenticated requests and redirects anonymous ones to login.
	router.Route("/oauth", func(r chi.Router) {
		r.With(authMiddleware.OptionalAuthenticator).Get("/authorize", oauth2Handler.Authorize)
		r.Post("/token", oauth2Handler.Token)
		r.With(authMiddleware.Authenticator).Get("/userinfo", oidcHandler.UserInfo)
	})

	// First-party auth
	router.Group(func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	// Collection API
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator)

			r.Get("/users/{id}", userHandler.GetUser)

			r.Route("/holdings", func(r chi.Router) {
				r.Post("/", portfolioHandler.CreateHolding)
				r.Get("/", portfolioHandler.ListHoldings)
				r.Get("/{id}", portfolioHandler.GetHolding)
				r.Put("/{id}", portfolioHandler.UpdateHolding)
				r.Delete("/{id}", portfolioHandler.DeleteHolding)
			})

			r.Get("/portfolio/valuation", portfolioHandler.Valuation)

			r.Get("/prices", portfolioHandler.LatestPrices)
			r.Get("/prices/{metal}", portfolioHandler.LatestPrice)
			r.Get("/prices/{metal}/history", portfolioHandler.PriceHistory)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator, authMiddleware.RequireRole("admin"))

			r.Get("/users", userHandler.ListUsers)

			r.Route("/oauth/clients", func(r chi.Router) {
				r.Post("/", clientHandler.CreateClient)
				r.Get("/", clientHandler.ListClients)
				r.Get("/{id}", clientHandler.GetClient)
				r.Put("/{id}", clientHandler.UpdateClient)
				r.Delete("/{id}", clientHandler.DeleteClient)
			})
		})
	})

	// FDX read surface for data aggregators
	router.Route("/fdx/v6", func(r chi.Router) {
		r.Use(authMiddleware.Authenticator, authMiddleware.RequireScope("accounts:read"))
		r.Get("/accounts", portfolioHandler.FDXAccounts)
	})

	return &Router{router: router, db: db, priceService: priceService, oauthRepo: oauthRepo}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

// PriceService exposes the wired price service so main can run the
// background spot sampler against the same instance the handlers use.
func (r *Router) PriceService() *application.PriceServiceImpl {
	return r.priceService
}

// OAuth2Repository exposes the wired repository so main can run the
// periodic cleanup of expired codes and refresh tokens.
func (r *Router) OAuth2Repository() domain.OAuth2Repository {
	return r.oauthRepo
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
