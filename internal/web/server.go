// Package web serves the dashboard's JSON API: device snapshots, control
// actions, plant profiles, and claims. It is a thin layer — decisions live
// in internal/logic, state in internal/monitor, persistence in
// internal/store.
package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/auth"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/monitor"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/ratelimit"
	"github.com/deepakroshant/ESP32-PlantMonitor-sub000/internal/store"
)

// Default cooldowns for sensitive actions. Advisory, per session — two
// dashboards can still double-fire; device-side idempotency is the backstop.
const (
	DefaultPumpCooldown   = 8 * time.Second
	DefaultResetCooldown  = 30 * time.Second
	DefaultInviteCooldown = 10 * time.Second
)

// Config holds server settings.
type Config struct {
	Addr      string
	JWTSecret []byte

	PumpCooldown   time.Duration
	ResetCooldown  time.Duration
	InviteCooldown time.Duration
}

func (c Config) withDefaults() Config {
	if c.PumpCooldown == 0 {
		c.PumpCooldown = DefaultPumpCooldown
	}
	if c.ResetCooldown == 0 {
		c.ResetCooldown = DefaultResetCooldown
	}
	if c.InviteCooldown == 0 {
		c.InviteCooldown = DefaultInviteCooldown
	}
	return c
}

// Server serves the dashboard API over HTTP.
type Server struct {
	httpServer *http.Server
	cfg        Config
	store      store.Store
	mon        *monitor.Monitor
	log        zerolog.Logger
	now        func() time.Time

	gatesMu sync.Mutex
	gates   map[string]*ratelimit.Gate
}

// New creates a Server over the given store and monitor.
func New(cfg Config, st store.Store, mon *monitor.Monitor, log zerolog.Logger) *Server {
	s := &Server{
		cfg:   cfg.withDefaults(),
		store: st,
		mon:   mon,
		log:   log,
		now:   time.Now,
		gates: make(map[string]*ratelimit.Gate),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.JWTSecret))

		r.Get("/devices", s.handleListDevices)
		r.Post("/devices", s.handleClaimDevice)
		r.Route("/devices/{deviceID}", func(r chi.Router) {
			r.Delete("/", s.handleReleaseDevice)
			r.Get("/", s.handleGetDevice)
			r.Get("/waterlog", s.handleWaterLog)
			r.Post("/pump", s.handlePump)
			r.Post("/reset", s.handleReset)
			r.Post("/calibration", s.handleCalibrate)
			r.Put("/target", s.handleSetTarget)
			r.Put("/schedule", s.handleSetSchedule)
			r.Put("/meta", s.handleSetMeta)
			r.Post("/alert/ack", s.handleAckAlert)
			r.Put("/profile", s.handleLinkProfile)
			r.Delete("/profile", s.handleUnlinkProfile)
		})

		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Put("/profiles/{profileID}", s.handleUpdateProfile)
		r.Delete("/profiles/{profileID}", s.handleDeleteProfile)

		r.Post("/invites", s.handleCreateInvite)
	})

	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: r,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// gate returns the cooldown gate for an action key, creating it on first
// use. Keys scope gates per device (pump, reset) or per user (invite).
func (s *Server) gate(key string, cooldown time.Duration) *ratelimit.Gate {
	s.gatesMu.Lock()
	defer s.gatesMu.Unlock()
	g, ok := s.gates[key]
	if !ok {
		g = ratelimit.NewWithClock(cooldown, func() time.Time { return s.now() })
		s.gates[key] = g
	}
	return g
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
