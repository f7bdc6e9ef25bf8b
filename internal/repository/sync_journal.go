package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
)

// SyncJournalRepository records completed sync cycles for diagnostics.
// Nothing in the sync pipeline reads these rows; the only durable sync
// state lives in the target store.
type SyncJournalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSyncJournalRepository(db *sql.DB, logger *zap.Logger) *SyncJournalRepository {
	return &SyncJournalRepository{
		db:     db,
		logger: logger,
	}
}

// InsertCycle stores one completed orchestrator pass.
func (r *SyncJournalRepository) InsertCycle(c *models.SyncCycle) (int64, error) {
	query := `
		INSERT INTO sync_cycles (
			window_start,
			window_end,
			events_decoded,
			unclassified,
			records_written,
			max_seq_num,
			elapsed_ms,
			error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(
		query,
		c.WindowStart,
		c.WindowEnd,
		c.EventsDecoded,
		c.Unclassified,
		c.RecordsWritten,
		int64(c.MaxSeqNum),
		c.Elapsed.Milliseconds(),
		nullableString(c.Error),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sync cycle: %w", err)
	}

	return id, nil
}

// RecentCycles returns the newest cycles, most recent first.
func (r *SyncJournalRepository) RecentCycles(limit int) ([]models.SyncCycle, error) {
	query := `
		SELECT
			id,
			window_start,
			window_end,
			events_decoded,
			unclassified,
			records_written,
			max_seq_num,
			elapsed_ms,
			error
		FROM sync_cycles
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.SyncCycle
	for rows.Next() {
		var c models.SyncCycle
		var maxSeq int64
		var elapsedMs int64
		var errText sql.NullString
		if err := rows.Scan(
			&c.ID,
			&c.WindowStart,
			&c.WindowEnd,
			&c.EventsDecoded,
			&c.Unclassified,
			&c.RecordsWritten,
			&maxSeq,
			&elapsedMs,
			&errText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync cycle: %w", err)
		}
		c.MaxSeqNum = uint32(maxSeq)
		c.Elapsed = millisDuration(elapsedMs)
		if errText.Valid {
			c.Error = errText.String
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync cycles: %w", err)
	}

	return cycles, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func millisDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
