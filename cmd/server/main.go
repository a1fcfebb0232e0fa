package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/torquex/rental-api/internal/booking"
	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/config"
	"github.com/torquex/rental-api/internal/database"
	"github.com/torquex/rental-api/internal/handler"
	"github.com/torquex/rental-api/internal/middleware"
	"github.com/torquex/rental-api/internal/payment"
	"github.com/torquex/rental-api/internal/queue"
	"github.com/torquex/rental-api/internal/repository"
	"github.com/torquex/rental-api/internal/router"
	"github.com/torquex/rental-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// A nil Redis client degrades the cache and disables the rate
	// limiter; the API keeps serving from the database.
	rdb := config.NewRedisClient()
	store := cache.NewRedisStore(rdb)
	if !cacheCfg.Enabled {
		store = cache.NewRedisStore(nil)
	}
	invalidator := cache.NewInvalidator(store)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	bookings := repository.NewBookingRepo(db)
	deals := repository.NewDealRepo(db)
	reviews := repository.NewReviewRepo(db)
	stats := repository.NewStatsRepo(db)

	gateway := payment.NewSandbox()
	publisher := service.NewQueuePublisher(queue.BrokerURL())
	bookingSvc := booking.NewService(vehicles, bookings, gateway, invalidator, publisher)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Expired refresh tokens are dead rows; prune them at boot and
	// twice a day after that.
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := tokens.DeleteExpired(ctx, time.Now().UTC())
			cancel()
			if err != nil {
				log.Printf("token prune: %v", err)
			} else if n > 0 {
				log.Printf("token prune: removed %d expired refresh tokens", n)
			}
			time.Sleep(12 * time.Hour)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(rateCfg, rdb))

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Vehicles: handler.NewVehicleHandler(vehicles, reviews, store, cacheCfg),
		Bookings: handler.NewBookingHandler(bookingSvc, bookings, store, cacheCfg),
		Deals:    handler.NewDealHandler(deals, store, cacheCfg, invalidator),
		Reviews:  handler.NewReviewHandler(reviews, bookings, invalidator),
		Admin:    handler.NewAdminHandler(vehicles, deals, stats, bookingSvc, store, cacheCfg, invalidator),
		Cache:    store,
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
