package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// CartridgeProcessor folds the three fill sub-events (cartridge,
// cannula, tubing) into the single semantic "site change" output type,
// each carrying a human-readable reason with the primed or filled
// volume when the event reports one.
type CartridgeProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewCartridgeProcessor(store Store, logger *zap.Logger) *CartridgeProcessor {
	return &CartridgeProcessor{store: store, logger: logger}
}

func (p *CartridgeProcessor) Class() pumplog.Class { return pumplog.ClassCartridge }

func (p *CartridgeProcessor) Enabled(f config.Features) bool { return f.Cartridge }

func (p *CartridgeProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeSiteChange, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last site change: %w", err)
	}

	for _, ev := range sortByTime(events) {
		if atOrBefore(ev.Timestamp(), cursor) {
			continue
		}

		var reason string
		switch ev.Record.EventID {
		case pumplog.EventCartridgeFilled:
			reason = fmt.Sprintf("Cartridge filled (%.1f units)", ev.Raw("insulinDisplayed"))
		case pumplog.EventCannulaFilled:
			reason = fmt.Sprintf("Cannula filled (%.2f units)", ev.Raw("primeSize"))
		case pumplog.EventTubingFilled:
			reason = fmt.Sprintf("Tubing filled (%.2f units)", ev.Raw("primeSize"))
		default:
			continue
		}

		t := newTreatment(models.EventTypeSiteChange, ev.Timestamp(), ev.Record.SeqNum)
		t.Reason = reason
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}
