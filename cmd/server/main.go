package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/tournament-ticketing/internal/config"     // Internal config loader
	"github.com/iliyamo/tournament-ticketing/internal/database"   // MySQL connection helper
	"github.com/iliyamo/tournament-ticketing/internal/handler"    // HTTP handlers
	"github.com/iliyamo/tournament-ticketing/internal/middleware" // rate limiting and response caching
	"github.com/iliyamo/tournament-ticketing/internal/model"      // role constants for the quota policy
	"github.com/iliyamo/tournament-ticketing/internal/queue"      // sale.completed publisher and consumer
	"github.com/iliyamo/tournament-ticketing/internal/repository" // data access layer
	"github.com/iliyamo/tournament-ticketing/internal/router"     // route registration
	"github.com/iliyamo/tournament-ticketing/internal/service"    // admission-control services
	"github.com/iliyamo/tournament-ticketing/internal/utils"      // access code generation
)

func main() {
	// Load a .env file when present so local development does not need
	// exported variables. Missing files are fine; production sets real env.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the single sql.DB pool.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	tournamentRepo := repository.NewTournamentRepo(db)
	windowRepo := repository.NewPriceWindowRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	quotaRepo := repository.NewQuotaRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)

	// Services. The quota policy is fixed at startup from config.
	policy := service.QuotaPolicy{
		FreeTournamentLimits: map[string]uint64{
			model.RoleOrganizer:   uint64(cfg.FreeTournamentLimitOrganizer),
			model.RoleGlobalAdmin: uint64(cfg.FreeTournamentLimitAdmin),
		},
		MaxSubAdmins: uint64(cfg.MaxSubAdmins),
	}
	tournamentSvc := service.NewTournamentService(userRepo, catalogRepo, quotaRepo, tournamentRepo, policy)
	priceResolver := service.NewPriceResolver(windowRepo)
	reservationSvc := service.NewReservationService(priceResolver, tournamentRepo, saleRepo, utils.NewAccessCode, uint64(cfg.FeeRateBps))

	// Sale events. The publisher degrades to a no-op without a broker URL;
	// the consumer writes completed sales to logs/sales.log.
	publisher := queue.NewPublisher(cfg.RabbitURL)
	if cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartSaleConsumer(cfg.RabbitURL); err != nil {
				log.Printf("sale consumer stopped: %v", err)
			}
		}()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	organizerHandler := handler.NewOrganizerHandler(tournamentSvc, windowRepo, saleRepo, tournamentRepo)
	participantHandler := handler.NewParticipantHandler(reservationSvc, saleRepo, tournamentRepo, publisher, cfg.AccessBaseURL)
	publicHandler := &handler.PublicHandler{
		Tournaments: tournamentRepo,
		Windows:     windowRepo,
		Catalogs:    catalogRepo,
		Prices:      priceResolver,
	}
	adminHandler := handler.NewAdminHandler(tournamentRepo, quotaRepo)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching. Rate limiting
	// covers every route; the cache is handed to the public route group
	// only, since authenticated responses are per-user. When Redis is
	// not reachable the client is nil and both are skipped.
	var publicCache echo.MiddlewareFunc
	if rdb := config.NewRedisClient(config.LoadRedisConfig()); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		publicCache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, publicCache)
	router.RegisterOrganizer(e, organizerHandler, cfg.JWTSecret)
	router.RegisterParticipant(e, participantHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
