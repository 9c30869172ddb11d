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

	"github.com/fastprodman/gamewallet/internal/api"
	"github.com/fastprodman/gamewallet/internal/infra/logging"
	"github.com/fastprodman/gamewallet/internal/notify"
	"github.com/fastprodman/gamewallet/internal/services/ledger"
	"github.com/fastprodman/gamewallet/internal/signature"
	"github.com/fastprodman/gamewallet/pkg/envconf"
	"github.com/fastprodman/gamewallet/pkg/shutdownqueue"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logCloser := logging.SetupJSON(cfg.LogLevel, cfg.LogFile)
	shutdownqueue.Add("log file", func(context.Context) error {
		return logCloser.Close()
	})

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Stores ---
	balanceStore, txLog, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Notifiers ---
	hub := notify.NewHub(cfg.WebSocket.AllowedOrigins)
	shutdownqueue.Add("websocket hub", func(context.Context) error {
		return hub.Close()
	})

	sinks := notify.Fanout{hub}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		shutdownqueue.Add("kafka writer", func(context.Context) error {
			return publisher.Close()
		})

		async := notify.NewAsync(publisher, cfg.NotifyQueue)
		shutdownqueue.Add("kafka queue", async.Close)

		sinks = append(sinks, async)

		slog.Info("publishing balance changes to kafka", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}

	// --- Ledger ---
	ids, err := ledger.NewIDGenerator(cfg.Ledger.NodeID)
	if err != nil {
		return fmt.Errorf("id generator: %w", err)
	}

	engine, err := ledger.New(
		balanceStore,
		txLog,
		sinks,
		ids,
		ledger.Options{
			OpeningBalance: cfg.Ledger.OpeningBalance,
			StoreTimeout:   cfg.Ledger.StoreTimeout,
			HistoryLimit:   cfg.Ledger.HistoryLimit,
			Registerer:     prometheus.DefaultRegisterer,
		},
	)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(api.RouterDeps{
		Ledger:   engine,
		Verifier: signature.NewVerifier(cfg.Provider.Secret, cfg.Provider.APIKey),
		Live:     hub,
		Metrics:  promhttp.Handler(),
	}))

	shutdownqueue.Add("http server", func(c context.Context) error {
		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "backend", cfg.Ledger.Backend)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
