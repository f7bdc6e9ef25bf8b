package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/nightscout"
	"github.com/jwoglom/tconnectsync-sub000/internal/notify"
	"github.com/jwoglom/tconnectsync-sub000/internal/poller"
	"github.com/jwoglom/tconnectsync-sub000/internal/repository"
	"github.com/jwoglom/tconnectsync-sub000/internal/store"
	"github.com/jwoglom/tconnectsync-sub000/internal/tconnect"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

// SyncService wires the clients, processors, orchestrator and poll
// driver together. All configuration is injected here; nothing deeper
// in the call stack reads ambient state.
type SyncService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	notifier    *notify.Notifier
	poller      *poller.Poller
}

// NewSyncService builds the full pipeline from configuration.
func NewSyncService(cfg *config.Config, logger *zap.Logger) (*SyncService, error) {
	s := &SyncService{
		config: cfg,
		logger: logger,
	}

	source := tconnect.NewClient(cfg.TConnect.BaseURL, cfg.TConnect.AccessToken, logger)
	target := nightscout.NewClient(cfg.Nightscout.URL, cfg.Nightscout.APISecret, logger)

	var journal CycleJournal
	if cfg.Database.Enabled {
		db, err := repository.NewPostgresDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		journal = repository.NewSyncJournalRepository(db, logger)
	}

	var kv store.KV
	if cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		kv = store.NewRedisKV(s.redisClient)
	}

	var notifier AlarmNotifier
	if cfg.MQTT.Enabled {
		n, err := notify.NewNotifier(
			cfg.MQTT.Broker,
			cfg.MQTT.ClientID,
			cfg.MQTT.Topic,
			cfg.MQTT.Username,
			cfg.MQTT.Password,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create MQTT notifier: %w", err)
		}
		s.notifier = n
		notifier = n
	}

	deviceID := cfg.TConnect.DeviceSerial
	if deviceID == "" {
		devices, err := source.FetchDeviceMetadata(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to discover devices: %w", err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("no devices on account")
		}
		deviceID = devices[0].SerialNumber
		logger.Info("No device serial configured, using first device",
			zap.String("serial", deviceID),
		)
	}

	processors := []translator.Processor{
		translator.NewBasalProcessor(target, cfg.Features.SkipZeroBasal, logger),
		translator.NewSuspensionProcessor(target, logger),
		translator.NewResumeProcessor(target, logger),
		translator.NewBolusProcessor(target, logger),
		translator.NewCartridgeProcessor(target, logger),
		translator.NewAlarmProcessor(target, logger),
		translator.NewCgmAlertProcessor(target, logger),
		translator.NewCgmSessionProcessor(target, logger),
		translator.NewCgmReadingProcessor(target, deviceID, logger),
		translator.NewUserModeProcessor(target, logger),
		translator.NewDeviceStatusProcessor(target, logger),
	}

	writer := translator.NewWriter(target, cfg.Pretend, logger)
	profile := translator.NewProfileUpdater(source, target, deviceID, cfg.Pretend, logger)

	orch := NewOrchestrator(
		deviceID,
		source,
		processors,
		writer,
		profile,
		journal,
		notifier,
		cfg.Features,
		logger,
	)

	s.poller = poller.New(cfg.Poller, deviceID, source, orch, kv, logger)

	return s, nil
}

// Start runs the poll loop until the context is cancelled or a fatal
// condition stops it.
func (s *SyncService) Start(ctx context.Context) error {
	s.logger.Info("Starting sync service",
		zap.String("device_serial", s.config.TConnect.DeviceSerial),
		zap.Bool("pretend", s.config.Pretend),
	)
	return s.poller.Run(ctx)
}

// Stop releases the service's connections.
func (s *SyncService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping sync service")

	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}

	s.logger.Info("Sync service stopped")
	return nil
}
