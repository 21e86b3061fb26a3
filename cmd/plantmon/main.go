// Command plantmon watches plant sensor devices through the realtime store,
// classifies their connectivity, and serves the dashboard API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/device"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/monitor"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/web"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	broker := flag.String("broker", getEnv("PLANTMON_BROKER", "tcp://localhost:1883"), "MQTT broker address")
	clientID := flag.String("client-id", getEnv("PLANTMON_CLIENT_ID", "plantmon-server"), "MQTT client id")
	httpAddr := flag.String("http", getEnv("PLANTMON_HTTP", ":8080"), "HTTP listen address")
	jwtSecret := flag.String("jwt-secret", os.Getenv("PLANTMON_JWT_SECRET"), "HS256 secret for session tokens")
	devices := flag.String("devices", os.Getenv("PLANTMON_DEVICES"), "comma-separated device ids to track at startup")
	tick := flag.Duration("tick", monitor.DefaultTickInterval, "status re-evaluation interval")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if err := run(log, *broker, *clientID, *httpAddr, *jwtSecret, *devices, *tick); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(log zerolog.Logger, broker, clientID, httpAddr, jwtSecret, devices string, tick time.Duration) error {
	if jwtSecret == "" {
		return fmt.Errorf("jwt secret is required (set PLANTMON_JWT_SECRET)")
	}

	st, err := store.NewMQTT(broker, clientID, log)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer st.Close()

	mon := monitor.New(st, log)
	for _, raw := range strings.Split(devices, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := device.ParseID(raw)
		if err != nil {
			return fmt.Errorf("device %q: %w", raw, err)
		}
		if _, err := mon.Track(id); err != nil {
			return fmt.Errorf("track %s: %w", id, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mon.Run(ctx, tick)

	srv := web.New(web.Config{Addr: httpAddr, JWTSecret: []byte(jwtSecret)}, st, mon, log)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.Info().Str("addr", httpAddr).Str("broker", broker).Msg("plantmon started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigCh:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
