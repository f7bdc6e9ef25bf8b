package translator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// BolusProcessor correlates the event types that share a bolus id: one
// completion event plus up to three "requested" detail events carrying
// carbs, BG and option flags, and for extended boluses the activation
// event carrying the start time. One output record is emitted per
// completed bolus, merging fields from the whole correlated set.
type BolusProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewBolusProcessor(store Store, logger *zap.Logger) *BolusProcessor {
	return &BolusProcessor{store: store, logger: logger}
}

func (p *BolusProcessor) Class() pumplog.Class { return pumplog.ClassBolus }

func (p *BolusProcessor) Enabled(f config.Features) bool { return f.Bolus }

// bolusGroup is the correlated event set for one bolus id.
type bolusGroup struct {
	completion *pumplog.Event
	activated  *pumplog.Event // extended bolus start, when present
	msg1       *pumplog.Event
	msg2       *pumplog.Event
	msg3       *pumplog.Event
}

func (p *BolusProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	sorted := sortByTime(events)

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeBolus, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last bolus: %w", err)
	}

	groups := make(map[int64]*bolusGroup)
	var completionOrder []int64

	group := func(id int64) *bolusGroup {
		g, ok := groups[id]
		if !ok {
			g = &bolusGroup{}
			groups[id] = g
		}
		return g
	}

	for i := range sorted {
		ev := &sorted[i]
		id := ev.Int("bolusID")
		switch ev.Record.EventID {
		case pumplog.EventBolusCompleted, pumplog.EventBolexCompleted:
			g := group(id)
			if g.completion == nil {
				g.completion = ev
				completionOrder = append(completionOrder, id)
			}
		case pumplog.EventBolexActivated:
			group(id).activated = ev
		case pumplog.EventBolusRequestedMsg1:
			group(id).msg1 = ev
		case pumplog.EventBolusRequestedMsg2:
			group(id).msg2 = ev
		case pumplog.EventBolusRequestedMsg3:
			group(id).msg3 = ev
		}
	}

	for _, id := range completionOrder {
		g := groups[id]
		completion := g.completion

		// Standard boluses are stamped with the completion time,
		// extended boluses with the activation (start) time. The
		// inconsistency comes from the pump's own reporting and is kept
		// as-is; downstream consumers depend on it.
		ts := completion.Timestamp()
		extended := completion.Record.EventID == pumplog.EventBolexCompleted
		if extended && g.activated != nil {
			ts = g.activated.Timestamp()
		}

		if atOrBefore(ts, cursor) {
			continue
		}

		t := newTreatment(models.EventTypeBolus, ts, completion.Record.SeqNum)
		t.Insulin = ptr(completion.Raw("insulinDelivered"))

		var notes []string
		if g.msg1 != nil {
			notes = append(notes, g.msg1.Str("bolusType"))
			if carbs := g.msg1.Raw("carbAmount"); carbs > 0 {
				t.Carbs = ptr(carbs)
			}
			if bg := g.msg1.Int("bg"); bg > 0 {
				t.Glucose = ptr(int(bg))
				t.GlucoseType = "Finger"
			}
		} else if extended {
			notes = append(notes, "Extended")
		}
		if extended && g.activated != nil {
			t.Duration = ptr(g.activated.Raw("duration"))
		}
		if g.msg2 != nil {
			for _, flag := range g.msg2.Flags("options") {
				switch flag {
				case "Override":
					notes = append(notes, "(Override)")
				case "DeclinedCorrection":
					notes = append(notes, "(Declined Correction)")
				}
			}
		}
		t.Notes = strings.Join(notes, " ")

		res.Treatments = append(res.Treatments, t)
	}

	// extended boluses can be stamped earlier than a standard bolus
	// completed before them; keep the output chronological
	sortTreatments(res.Treatments)

	return res, nil
}
