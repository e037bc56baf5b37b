package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"airmon-uplink/internal/config"
	"airmon-uplink/internal/db"
	"airmon-uplink/internal/httpapi"
	"airmon-uplink/internal/journal"
	"airmon-uplink/internal/link"
	"airmon-uplink/internal/migrate"
	"airmon-uplink/internal/mqtt"
	"airmon-uplink/internal/sensor"
	"airmon-uplink/internal/status"
	"airmon-uplink/internal/transport"
	"airmon-uplink/internal/uplink"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"sendURL", cfg.SendURL,
		"aqiURL", cfg.AQIURL,
		"sendInterval", cfg.SendInterval,
		"maxRetries", cfg.MaxRetries,
		"wifiInterface", cfg.WiFiInterface,
		"snapshotPath", cfg.SnapshotPath,
		"httpAddr", cfg.HTTPAddr,
		"mqttEnabled", cfg.MQTTEnabled,
		"journalEnabled", cfg.JournalEnabled,
	)

	wireless := link.NewWireless(cfg.WiFiInterface, logger)
	wireless.SysClassNet = cfg.LinkSysDir
	wireless.ProcWireless = cfg.LinkProcWireless
	reconnector, err := link.NewCommandReconnector(cfg.ReconnectCmd, 0, logger)
	if err != nil {
		return err
	}

	client, err := transport.NewClient(transport.Config{
		SendURL:     cfg.SendURL,
		AQIURL:      cfg.AQIURL,
		MaxAttempts: cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
	}, wireless, logger)
	if err != nil {
		return err
	}

	manager, err := uplink.NewManager(uplink.Config{
		SendInterval:      cfg.SendInterval,
		ReconnectInterval: cfg.ReconnectInterval,
		ReconnectMax:      cfg.ReconnectMax,
	}, client, wireless, nil, logger)
	if err != nil {
		return err
	}

	store := status.NewStore()
	ctrl := &controller{
		manager:   manager,
		link:      wireless,
		sensors:   sensor.NewFileSource(cfg.SnapshotPath, cfg.SnapshotMaxAge, logger),
		reconnect: reconnector,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}

	var cycles httpapi.CycleLister
	if cfg.JournalEnabled {
		dbConn, j, err := openJournal(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(dbConn); err != nil {
				logger.Error("db close", "error", err)
			}
		}()
		ctrl.journal = j
		cycles = j
	}

	if cfg.MQTTEnabled {
		pub, err := mqtt.NewPublisher(mqtt.Options{
			Broker:      cfg.MQTTBroker,
			Port:        cfg.MQTTPort,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			DeviceID:    cfg.DeviceID,
		}, logger)
		if err != nil {
			return err
		}
		// Bounded initial connect; paho keeps retrying afterwards.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := pub.Connect(connectCtx); err != nil {
			logger.Warn("mqtt connection failed (continuing)", "error", err)
		}
		connectCancel()
		defer pub.Disconnect()
		ctrl.publisher = pub
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewMux(httpapi.Deps{
		Status: store,
		Cycles: cycles,
		Logger: logger,
	}), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = ctrl.loop(loopCtx, cfg.LoopInterval)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopLoop()
		<-loopDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	stopLoop()
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func openJournal(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, *journal.Journal, error) {
	dbConn, err := db.Open(ctx, db.Options{
		Path:   cfg.SQLitePath,
		LogSQL: cfg.LogLevel <= slog.LevelDebug,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.Run(ctx, dbConn, migrate.Schema, logger); err != nil {
		_ = db.Close(dbConn)
		return nil, nil, err
	}
	j, err := journal.New(dbConn, logger)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, nil, err
	}
	logger.Info("cycle journal ready", "path", cfg.SQLitePath)
	return dbConn, j, nil
}
