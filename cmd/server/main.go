package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/pull-events/pull-api/internal/codec"
	"github.com/pull-events/pull-api/internal/config"
	"github.com/pull-events/pull-api/internal/database"
	"github.com/pull-events/pull-api/internal/handler"
	"github.com/pull-events/pull-api/internal/middleware"
	"github.com/pull-events/pull-api/internal/model"
	"github.com/pull-events/pull-api/internal/queue"
	"github.com/pull-events/pull-api/internal/repository"
	"github.com/pull-events/pull-api/internal/router"
	"github.com/pull-events/pull-api/internal/service"
	"github.com/pull-events/pull-api/internal/utils"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger(os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBParams())
	if err != nil {
		return err
	}
	defer db.Close()

	cd, err := codec.New(cfg.AppKey, cfg.AppIV)
	if err != nil {
		return err
	}

	// Status names are the contract; their IDs come from the lookup tables.
	statuses := repository.NewStatusRepo()
	resRows, err := statuses.ReservationStatuses(ctx, db)
	if err != nil {
		return err
	}
	guestRows, err := statuses.GuestStatuses(ctx, db)
	if err != nil {
		return err
	}

	tx := database.NewTransactor(db)
	catalogRepo := repository.NewCatalogRepo(db)
	identity := service.NewIdentityResolver(repository.NewPersonRepo(), cd, cfg.DPISalt)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.StaffTokenTTL, cfg.ReservationTokenTTL)

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL)
	} else {
		log.Warn("RABBITMQ_URL not set, booking events are dropped")
	}

	bookings, err := service.NewBookingService(service.BookingDeps{
		Tx:               tx,
		Reservations:     repository.NewReservationRepo(),
		Guests:           repository.NewGuestRepo(),
		Catalog:          catalogRepo,
		Identity:         identity,
		Codec:            cd,
		Tokens:           tokens,
		Publisher:        publisher,
		Log:              log,
		BcryptCost:       cfg.BcryptCost,
		ReservationTable: model.NewStatusTable(resRows),
		GuestTable:       model.NewStatusTable(guestRows),
	})
	if err != nil {
		return err
	}
	catalog := service.NewCatalogService(catalogRepo, db, cd, log)
	orders := service.NewOrderService(tx, catalogRepo, repository.NewInventoryRepo(), repository.NewOrderRepo(), identity, cd, log)
	tickets := service.NewTicketService(tx, repository.NewTicketRepo(), cd, log)
	auth := service.NewAuthService(db, repository.NewWorkerRepo(), tokens, cd, log)

	// Redis is optional: without it the cache and the shared limiter are
	// pass-through.
	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(slogecho.NewWithConfig(log, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, router.Deps{
		Catalog:           handler.NewCatalogHandler(catalog, cd),
		Orders:            handler.NewOrderHandler(orders),
		Auth:              handler.NewAuthHandler(auth, cd),
		Tickets:           handler.NewTicketHandler(tickets),
		Bookings:          handler.NewBookingHandler(bookings, cd),
		Tokens:            tokens,
		Codec:             cd,
		Cache:             middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
		Limiter:           middleware.NewIPLimiter(cfg.AuthRatePerMin, 5),
		BookingAdminRoles: cfg.BookingAdminRoles,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
