package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin/internal/audit"
	"checkin/internal/checkin"
	"checkin/internal/config"
	"checkin/internal/directory"
	"checkin/internal/scanner"
	"checkin/internal/store"
)

// The scanner binary drives the scan loop at a check-in station:
// camera stream -> QR decode -> match -> record.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	repo := checkin.NewPostgresRepository(db.Client)
	recorder := checkin.NewRecorder(repo)
	sink := audit.NewRedisStream(redisClient.Client, cfg.AuditStream)
	engine := checkin.NewEngine(recorder, sink, cfg.ScanOperator)
	if cfg.EventID == "" {
		log.Println("WARNING: no EVENT_ID set, scans will fail until an event is selected")
	}
	engine.SelectEvent(cfg.EventID)

	feed := directory.NewFeed(redisClient.Client, cfg.RegistrantChannel, cfg.EventChannel, engine)
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.Printf("directory feed stopped: %v", err)
		}
	}()

	// Metrics on a side port so the station can be monitored.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.HTTPPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	source := scanner.NewMJPEGSource(cfg.CameraURL)
	loop := scanner.NewLoop(source, scanner.NewQRDecoder(), engine, cfg.ScanCooldown)
	loop.SetFacing(cfg.CameraFacing)

	if err := loop.Start(ctx); err != nil {
		log.Fatalf("scan loop start failed: %v", err)
	}
	log.Printf("scan loop started, camera %s facing %s", cfg.CameraURL, cfg.CameraFacing)

	<-ctx.Done()
	loop.Stop()
	log.Println("scan loop stopped")
}
