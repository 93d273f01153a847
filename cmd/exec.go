package cmd

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"courtbook/config"
	"courtbook/handlers"
	_ "courtbook/migrations"
	"courtbook/security"
	"courtbook/services"
	"courtbook/utils"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
)

func Execute() {
	cfg := config.LoadConfig()

	app := pocketbase.New()

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	var (
		lockStore   services.LockStore
		lockSweeper services.LockSweeper
		redisClient *redis.Client
	)
	switch strings.ToLower(cfg.LockBackend) {
	case "memory":
		mem := services.NewMemoryLockStore()
		lockStore, lockSweeper = mem, mem
		slog.Info("using in-memory lock store")
	default:
		redisClient = utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		rs := services.NewRedisLockStore(redisClient)
		lockStore, lockSweeper = rs, rs
		slog.Info("using redis lock store", "addr", cfg.RedisURL)
	}

	events := newEventPublisher(cfg)

	availability := services.NewAvailabilityService(app, lockStore, cfg)
	lockService := services.NewLockService(app, lockStore, cfg)
	bookingService := services.NewBookingService(app, lockStore, events, cfg)
	reaper := services.NewExpiryReaper(lockSweeper, cfg.ReaperInterval)

	limiter := security.NewRateLimiter(redisClient, cfg.LockRateLimit, cfg.LockRateWindow)

	slotHandler := handlers.NewSlotHandler(availability, lockService, limiter, cfg)
	bookingHandler := handlers.NewBookingHandler(bookingService, cfg)
	adminHandler := handlers.NewAdminHandler(bookingService, lockSweeper, cfg)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// availability
		e.Router.GET("/api/v1/facilities/{facilityId}/time-slots", slotHandler.GetTimeSlots)
		e.Router.GET("/api/v1/courts/{courtId}/check-availability", slotHandler.CheckAvailability)

		// slot locks
		e.Router.POST("/api/v1/slots/lock", slotHandler.AcquireLock)
		e.Router.POST("/api/v1/slots/renew-lock", slotHandler.RenewLock)
		e.Router.POST("/api/v1/slots/unlock", slotHandler.ReleaseLock)
		e.Router.GET("/api/v1/slots/validate-lock", slotHandler.ValidateLock)

		// booking lifecycle
		e.Router.POST("/api/v1/bookings", bookingHandler.CreateBooking)
		e.Router.GET("/api/v1/bookings/history", bookingHandler.History)
		e.Router.GET("/api/v1/bookings/{id}", bookingHandler.GetBooking)
		e.Router.POST("/api/v1/bookings/{id}/pay", bookingHandler.MarkPaid)
		e.Router.POST("/api/v1/bookings/{id}/confirm", bookingHandler.Confirm)
		e.Router.POST("/api/v1/bookings/{id}/cancel", bookingHandler.Cancel)
		e.Router.POST("/api/v1/bookings/{id}/no-show", bookingHandler.MarkNoShow)
		e.Router.POST("/api/v1/bookings/{id}/complete", bookingHandler.Complete)

		// staff dashboard
		e.Router.GET("/api/v1/admin/facilities/{facilityId}/bookings", adminHandler.DayBookings)
		e.Router.POST("/api/v1/admin/locks/sweep", adminHandler.SweepLocks)

		reaper.Start()

		if cfg.EnableMetrics {
			go startOpsServer(cfg, redisClient)
		}

		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		reaper.Stop()
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", "error", err)
			}
		}
		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func newEventPublisher(cfg *config.Config) services.EventPublisher {
	if cfg.PubNubPublishKey == "" || cfg.PubNubSubscribeKey == "" {
		slog.Info("pubnub keys not configured, lifecycle events disabled")
		return services.NopPublisher{}
	}

	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	return services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
}

// startOpsServer exposes metrics and liveness on a separate listener so the
// scrape path never competes with booking traffic.
func startOpsServer(cfg *config.Config, redisClient *redis.Client) {
	e := echo.New()

	e.GET("/metrics", func(c echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/healthz", func(c echo.Context) error {
		health := map[string]string{"status": "ok"}
		if redisClient != nil {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				health["status"] = "degraded"
				health["redis"] = err.Error()
				return c.JSON(http.StatusServiceUnavailable, health)
			}
			health["redis"] = "ok"
		}
		return c.JSON(http.StatusOK, health)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: e,
	}
	slog.Info("ops server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("ops server failed", "error", err)
		os.Exit(1)
	}
}
