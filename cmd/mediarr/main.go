package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mediarr/mediarr/internal/api"
	"github.com/mediarr/mediarr/internal/catalog"
	"github.com/mediarr/mediarr/internal/config"
	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/logger"
	"github.com/mediarr/mediarr/internal/pipeline"
	"github.com/mediarr/mediarr/internal/plex"
	"github.com/mediarr/mediarr/internal/scheduler"
	"github.com/mediarr/mediarr/internal/seer"
	"github.com/mediarr/mediarr/internal/sensor"
	"github.com/mediarr/mediarr/internal/websocket"
)

func main() {
	// Local development overrides; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", api.Version).
		Str("address", cfg.Server.Address()).
		Msg("starting mediarr")

	cat := catalog.NewClient(cfg.TMDB, log.Logger)
	if !cat.IsConfigured() {
		log.Fatal().Msg("tmdb.api_key is required")
	}

	hub := websocket.NewHub()
	go hub.Run()

	registry := sensor.NewRegistry()

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	registerSensors(cfg, cat, registry, log.Logger)

	for _, sn := range registry.All() {
		registerRefreshTask(sched, hub, registry, sn, cfg.Sensors.RefreshInterval, log.Logger)
	}

	server := api.NewServer(registry, sched, hub, log.Logger)

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown failed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// registerSensors builds the sensors the configuration enables. Each
// upstream is optional; an unset URL simply leaves its sensors out.
func registerSensors(cfg *config.Config, cat *catalog.Client, registry *sensor.Registry, log zerolog.Logger) {
	rules := filter.Defaults().Apply(cfg.Sensors.Filters)
	opts := pipeline.Options{MaxItems: cfg.Sensors.MaxItems}

	if cfg.Plex.URL != "" {
		// A library feed never filters its own content.
		open := filter.New(filter.Config{}, log)
		pipe := pipeline.New(cat, open, opts, log)
		client := plex.NewClient(cfg.Plex, log)
		if err := registry.AddLibrary(sensor.NewPlexSensor(client, pipe, log)); err != nil {
			log.Error().Err(err).Msg("failed to register plex sensor")
		}
	}

	if cfg.Seer.URL != "" {
		engine := filter.New(rules, log)
		pipe := pipeline.New(cat, engine, opts, log)
		client := seer.NewClient(cfg.Seer, log)
		for _, contentType := range cfg.Sensors.SeerTypes {
			sn := sensor.NewSeerSensor(client, pipe, sensor.ContentType(contentType), log)
			if err := registry.Add(sn); err != nil {
				log.Error().Err(err).Str("type", contentType).Msg("failed to register seer sensor")
			}
		}
	}

	engine := filter.New(rules, log)
	for _, list := range cfg.Sensors.TMDBLists {
		sn := sensor.NewTMDBSensor(cat, engine, registry, sensor.ListType(list), cfg.Sensors.MaxItems, log)
		if err := registry.Add(sn); err != nil {
			log.Error().Err(err).Str("list", list).Msg("failed to register tmdb sensor")
		}
	}
}

// registerRefreshTask schedules one sensor's refresh cycle. Every cycle
// pushes the fresh snapshot to connected clients; library sensors also
// invalidate the sibling view their records feed.
func registerRefreshTask(sched *scheduler.Scheduler, hub *websocket.Hub, registry *sensor.Registry, sn sensor.Sensor, interval time.Duration, log zerolog.Logger) {
	id := sn.UniqueID()
	isLibrary := registry.IsLibrary(id)

	err := sched.RegisterTask(scheduler.TaskConfig{
		ID:         id,
		Name:       sn.Name(),
		Interval:   interval,
		RunOnStart: true,
		Func: func(ctx context.Context) error {
			err := sn.Refresh(ctx)
			if isLibrary {
				registry.InvalidateLibraryView()
			}
			if berr := hub.Broadcast("sensor:updated", map[string]interface{}{
				"id":       id,
				"snapshot": sn.Snapshot(),
			}); berr != nil {
				log.Warn().Err(berr).Str("sensor", id).Msg("broadcast failed")
			}
			return err
		},
	})
	if err != nil {
		log.Error().Err(err).Str("sensor", id).Msg("failed to register refresh task")
	}
}
