package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"max.ks1230/billtracker/internal/api"
	"max.ks1230/billtracker/internal/auth"
	"max.ks1230/billtracker/internal/clients/cache"
	"max.ks1230/billtracker/internal/clients/kafka"
	"max.ks1230/billtracker/internal/config"
	"max.ks1230/billtracker/internal/entity/event"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/commands"
	"max.ks1230/billtracker/internal/model/queries"
	"max.ks1230/billtracker/internal/model/reports"
	"max.ks1230/billtracker/internal/model/storage"
	"max.ks1230/billtracker/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

type publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

func main() {
	defer logger.Sync()
	logger.Info("billtracker init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}

	tracer, err := tracing.Init(conf.Jaeger())
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer closeLogged("tracer", tracer.Close)

	store, err := storage.New(conf.Database())
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer closeLogged("storage", store.Close)

	aggCache, err := cache.New(conf.Cache())
	if err != nil {
		logger.Fatal("failed to init cache", zap.Error(err))
	}

	var events publisher
	if conf.Kafka().Enabled() {
		producer, err := kafka.NewProducer(conf.Kafka())
		if err != nil {
			logger.Fatal("failed to init kafka producer", zap.Error(err))
		}
		defer producer.Close()
		events = producer
	}

	query, err := queries.NewExpensesQuery(conf.App(), store, aggCache)
	if err != nil {
		logger.Fatal("failed to init queries", zap.Error(err))
	}

	server := api.New(conf.HTTP(), api.Deps{
		AddExpense:      commands.NewAddExpense(store, events, aggCache),
		SaveAggregate:   commands.NewSaveExpenseAggregate(store, events, aggCache),
		DeleteAggregate: commands.NewDeleteExpenseAggregate(store, events, aggCache),
		AddExpenseType:  commands.NewAddExpenseType(store),
		Query:           query,
		Reports:         reports.NewGenerator(query, store),
		Tokens:          auth.NewJWTManager(conf.Auth()),
		Health:          store,
	})
	metrics := &http.Server{
		Addr:              conf.HTTP().MetricsAddr(),
		Handler:           api.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("billtracker init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(server.Run)
	g.Go(func() error {
		logger.Info("metrics server listening", zap.String("addr", metrics.Addr))
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve metrics")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop http server", zap.Error(err))
		}
		return metrics.Shutdown(shutdownCtx)
	})

	if err = g.Wait(); err != nil {
		logger.Error("billtracker stopped with error", zap.Error(err))
	}
}

func closeLogged(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("failed to close "+name, zap.Error(err))
	}
}
