package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/demo"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/registry"
	"github.com/hackgods/clinic-scheduling/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	log.WithFields(logrus.Fields{
		"env":       cfg.Env,
		"http_port": cfg.HTTPPort,
		"version":   version,
	}).Info("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks := appointment.MultiSink{appointment.LogSink{Logger: log}}
	var checks []api.DependencyCheck

	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.WithError(err).Fatal("postgres connection error")
		}
		defer pgPool.Close()
		log.Info("connected to Postgres, event journal enabled")

		sinks = append(sinks, appointment.NewPgEventSink(pgPool))
		checks = append(checks, api.DependencyCheck{Name: "postgres", Ping: pgPool.Ping})
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.WithError(err).Fatal("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.WithError(err).Warn("error closing redis")
			}
		}()
		log.Info("connected to Redis, queue board enabled")

		sinks = append(sinks, redisclient.NewQueueBoard(rdb, ""))
		checks = append(checks, api.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	patients := registry.NewPatients()
	doctors := registry.NewDoctors()
	mgr := appointment.NewManager(patients, doctors, appointment.Options{
		SlotLength: cfg.SlotDuration,
		DayStart:   cfg.DefaultDayStart,
		DayEnd:     cfg.DefaultDayEnd,
		Sink:       sinks,
		Logger:     log,
	})

	if cfg.SeedDemo {
		sum, err := demo.LoadClinic(rootCtx, patients, doctors, mgr, time.Now())
		if err != nil {
			log.WithError(err).Fatal("demo data load error")
		}
		log.WithFields(logrus.Fields{
			"patients":     sum.Patients,
			"doctors":      sum.Doctors,
			"appointments": sum.Appointments,
		}).Info("demo clinic loaded")
	}
	if cfg.SeedFakeCount > 0 {
		sum, err := demo.Populate(gofakeit.New(0), patients, doctors, cfg.SeedFakeCount)
		if err != nil {
			log.WithError(err).Fatal("fake data load error")
		}
		log.WithFields(logrus.Fields{
			"patients": sum.Patients,
			"doctors":  sum.Doctors,
		}).Info("fake records loaded")
	}

	if cfg.NoShowSweepInterval > 0 {
		sweeper := &worker.NoShowSweeper{
			Marker:   mgr,
			Interval: cfg.NoShowSweepInterval,
			Grace:    cfg.NoShowGrace,
			Logger:   log,
		}
		go sweeper.Run(rootCtx)
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Manager:  mgr,
			Patients: patients,
			Doctors:  doctors,
			Checks:   checks,
			Logger:   log,
			Env:      cfg.Env,
			Version:  version,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("http server error")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	log.Info("api-server stopped")
}
