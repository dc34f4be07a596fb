package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"aqmap-server/internal/config"
	db "aqmap-server/internal/db"
	httpapi "aqmap-server/internal/httpapi"
	"aqmap-server/internal/metrics"
	"aqmap-server/internal/migrate"
	"aqmap-server/internal/modules/airquality"
	"aqmap-server/internal/modules/airquality/source"
	aqviews "aqmap-server/internal/modules/airquality/views"
	"aqmap-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sourceURL", cfg.SourceURL,
		"sourceTimeout", cfg.SourceTimeout,
		"timezone", cfg.Location.String(),
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := aqviews.LoadTemplates(); err != nil {
		return err
	}

	m := metrics.New()
	opts := airquality.Options{
		Fetcher:  source.NewClient(cfg.SourceURL, cfg.SourceTimeout, nil, logger),
		Observer: m,
		Location: cfg.Location,
		Logger:   logger,
	}

	var publisher *mqtt.Publisher
	if cfg.MQTTEnabled {
		publisher, err = mqtt.NewPublisher(cfg, logger)
		if err != nil {
			return err
		}
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt broker not reachable yet, retrying in background; publishes are skipped until connected", "error", err)
		}
		opts.Publisher = publisher
	}

	mux := httpapi.NewMux(dbConn, cfg.StaticDir, m)
	svc := airquality.RegisterFeature(mux, dbConn, opts)

	// The map is built once at startup; afterwards only POST /api/v1/refresh
	// replaces the snapshot.
	refreshCtx, refreshCancel := context.WithTimeout(ctx, cfg.SourceTimeout+5*time.Second)
	svc.Refresh(refreshCtx)
	refreshCancel()

	srv := httpapi.NewServer(cfg, mux, m, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if publisher != nil {
		logger.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
