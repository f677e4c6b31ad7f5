package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
	"github.com/example/campus-scheduler/internal/scheduler"
)

func main() {
	logger := logging.NewLogger(slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Error("storage is not reachable", "error", err)
		os.Exit(1)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	entryRepo := sqlite.NewEntryRepository(pool)
	reservationRepo := sqlite.NewReservationRepository(pool)
	catalogRepo := sqlite.NewCatalogRepository(pool)

	resolver := scheduler.NewResolver(entryRepo, reservationRepo)

	idGenerator := uuid.NewString
	now := time.Now

	timetableService := application.NewTimetableService(entryRepo, entryRepo, catalogRepo, resolver, logger, cfg.Timezone, idGenerator, now)
	reservationService := application.NewReservationService(reservationRepo, catalogRepo, resolver, logger, idGenerator, now)
	catalogService := application.NewCatalogService(catalogRepo, logger, idGenerator, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Timetable:    httptransport.NewTimetableHandler(timetableService, logger),
		Schedule:     httptransport.NewScheduleHandler(timetableService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Catalog:      httptransport.NewCatalogHandler(catalogService, logger),
		Middleware: []httptransport.Middleware{
			httptransport.RequestLogger(logger),
			httptransport.PrincipalExtractor(),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus scheduler API listening", "addr", server.Addr, "timezone", cfg.Timezone.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
