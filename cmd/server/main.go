package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"github.com/mrperfect/storefront/internal/config"
	"github.com/mrperfect/storefront/internal/database"
	"github.com/mrperfect/storefront/internal/handler"
	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/queue"
	"github.com/mrperfect/storefront/internal/repository"
	"github.com/mrperfect/storefront/internal/router"
	"github.com/mrperfect/storefront/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and review cache disabled")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var chat *handler.ChatHandler
	if cfg.MongoURI != "" {
		client, mdb, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Printf("mongo unavailable, chat disabled: %v", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			chats := repository.NewChatRepo(mdb)
			if err := chats.EnsureIndexes(ctx); err != nil {
				log.Printf("mongo indexes: %v", err)
			}
			chat = handler.NewChatHandler(chats)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Static("/uploads", cfg.UploadDir)

	rl := config.LoadRateLimitConfig()
	e.Use(middleware.NewTokenBucket(rl, "default", rl.Default, rdb))

	var pub service.EventPublisher = service.NoopPublisher{}
	if cfg.EventsEnabled {
		pub = service.AMQPPublisher{URL: cfg.AMQPURL}
		go func() {
			if err := queue.StartNotificationConsumer(ctx, cfg.AMQPURL, cfg.NotificationLog); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	}

	store := service.NewSQLStore(db)
	bookings := service.NewBookingService(store, nil, pub, cfg.StrictBookingProduct)
	orders := service.NewOrderService(store, pub)
	reviews := service.NewReviewService(store)
	carts := service.NewCartService(store)

	users := repository.NewUserRepo(db)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)),
		Bookings:    handler.NewBookingHandler(bookings, cfg.UploadDir),
		Orders:      handler.NewOrderHandler(orders),
		Reviews:     handler.NewReviewHandler(reviews, cache),
		Addresses:   handler.NewAddressHandler(repository.NewAddressRepo(db)),
		Products:    handler.NewProductHandler(repository.NewProductRepo(db), cache),
		Carts:       handler.NewCartHandler(carts),
		Users:       handler.NewUserHandler(users),
		Subscribers: handler.NewSubscriberHandler(repository.NewSubscriberRepo(db)),
		Chat:        chat,
		DB:          db,
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Writes:    middleware.NewTokenBucket(rl, "writes", rl.Writes, rdb),
		Cache:     cache.Middleware(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
