package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
)

// ProfileSource exposes the pump's active profile.
type ProfileSource interface {
	FetchPumpProfile(ctx context.Context, deviceID string) (*models.Profile, error)
}

// ProfileUpdater mirrors the pump's active profile into the target
// store. It is a cross-cutting updater, not a per-event processor: it
// runs once per orchestration pass regardless of event classification,
// compares the fixed typed schema segment by segment and writes only
// when the settings actually differ.
type ProfileUpdater struct {
	source   ProfileSource
	store    ProfileStore
	deviceID string
	pretend  bool
	logger   *zap.Logger
}

func NewProfileUpdater(source ProfileSource, store ProfileStore, deviceID string, pretend bool, logger *zap.Logger) *ProfileUpdater {
	return &ProfileUpdater{
		source:   source,
		store:    store,
		deviceID: deviceID,
		pretend:  pretend,
		logger:   logger,
	}
}

// Update returns the number of profile records written (0 or 1).
func (u *ProfileUpdater) Update(ctx context.Context) (int, error) {
	pumpProfile, err := u.source.FetchPumpProfile(ctx, u.deviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pump profile: %w", err)
	}
	if pumpProfile == nil {
		return 0, nil
	}

	current, err := u.store.CurrentProfile(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch current profile: %w", err)
	}

	if current != nil && current.Equal(pumpProfile) {
		return 0, nil
	}

	if u.pretend {
		u.logger.Info("Pretend: would upsert profile", zap.String("name", pumpProfile.Name))
		return 1, nil
	}
	if err := u.store.UpsertProfile(ctx, pumpProfile); err != nil {
		return 0, fmt.Errorf("failed to upsert profile: %w", err)
	}
	u.logger.Info("Profile updated", zap.String("name", pumpProfile.Name))
	return 1, nil
}
