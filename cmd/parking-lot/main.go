package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-system/internal/config"
	"parking-system/internal/logging"
	"parking-system/internal/parking"
	"parking-system/internal/server"
	"parking-system/internal/store"
	"parking-system/internal/telemetry"
)

var (
	mode = flag.String("mode", "cli", "Mode to run: cli, server, or both")
	port = flag.String("port", "", "Port for HTTP server (defaults to APP_PORT)")
)

type app struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	lot       *parking.InstrumentedParkingLot
}

func main() {
	flag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := telemetry.NewProvider(ctx, cfg.OTelServiceName, cfg.OTelEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// The shell owns stdout in cli and both modes.
	if *mode == "server" {
		logging.Init(cfg.OTelServiceName, cfg.Environment)
	} else {
		logging.InitWithWriter(os.Stderr, cfg.OTelServiceName, cfg.Environment)
	}

	parkingStore, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		shutdownTelemetry(telemetryProvider)
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	lot, err := parking.NewInstrumentedParkingLot(
		parking.NewParkingLot(parkingStore),
		telemetryProvider.Tracer(),
		telemetryProvider.Meter(),
	)
	if err != nil {
		closeStore()
		shutdownTelemetry(telemetryProvider)
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	logging.Info(ctx, "parking system starting",
		"mode", *mode,
		"store", cfg.StoreDriver,
		"car_spots", cfg.CarSpots,
		"bike_spots", cfg.BikeSpots,
	)

	a := &app{cfg: cfg, telemetry: telemetryProvider, lot: lot}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch *mode {
	case "cli":
		a.runCLI(ctx, cancel, sigChan)
	case "server":
		a.runServer(ctx, cancel, sigChan)
	case "both":
		a.runBoth(ctx, cancel, sigChan)
	default:
		logging.Error(ctx, "invalid mode, must be cli, server, or both", "mode", *mode)
	}

	shutdownTelemetry(telemetryProvider)
}

func (a *app) runCLI(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx, "shutting down")
		cancel()
	}()

	shell := parking.NewShell(a.lot, os.Stdin, os.Stdout, a.telemetry.Tracer())
	shell.Run(ctx)
}

func (a *app) runServer(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := server.NewServer(a.cfg.Port, a.lot, a.cfg.OTelServiceName)

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		shutdownServer(srv)
		cancel()
	}()

	logging.Info(ctx, "starting server mode", "address", srv.GetAddress())
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx, "server error", "error", err)
	}
}

func (a *app) runBoth(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := server.NewServer(a.cfg.Port, a.lot, a.cfg.OTelServiceName)

	serverDone := make(chan error, 1)
	go func() {
		logging.Info(ctx, "starting HTTP server", "address", srv.GetAddress())
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewShell(a.lot, os.Stdin, os.Stdout, a.telemetry.Tracer())
		shell.Run(ctx)
		close(cliDone)
	}()

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "server error", "error", err)
		}
	case <-cliDone:
		logging.Info(ctx, "CLI exited")
	case <-ctx.Done():
		logging.Info(ctx, "context cancelled")
	}

	shutdownServer(srv)
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetryProvider *telemetry.Provider) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "error shutting down telemetry", "error", err)
	}
}
