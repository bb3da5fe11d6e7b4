package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/timeblocks/internal/persistence"
)

const blockColumns = `id, user_id, title, date, start_time, end_time, is_recurring, recurring_days,
	recurring_start_date, recurring_end_date, excluded_dates, completed, completed_dates, checklist,
	category, type, color, meeting_link, notification_time, description, created_at, updated_at`

// BlockRepository implements persistence.BlockRepository on SQLite.
// Set-valued fields are stored as JSON text.
type BlockRepository struct {
	pool  *ConnectionPool
	retry *RetryHelper
	now   func() time.Time
}

var _ persistence.BlockRepository = (*BlockRepository)(nil)

// NewBlockRepository creates a repository over pool.
func NewBlockRepository(pool *ConnectionPool) *BlockRepository {
	return &BlockRepository{
		pool:  pool,
		retry: NewRetryHelper(DefaultRetryConfig()),
		now:   time.Now,
	}
}

// ListBlocks returns the blocks of userID ordered by date, start and ID.
func (r *BlockRepository) ListBlocks(ctx context.Context, userID string) ([]persistence.BlockRecord, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE user_id = ? ORDER BY date ASC, start_time ASC, id ASC`

	records := []persistence.BlockRecord{}
	err := r.retry.WithRetry(ctx, func() error {
		records = records[:0]
		rows, err := r.pool.DB().QueryContext(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanBlock(rows)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetBlock fetches one block by ID.
func (r *BlockRepository) GetBlock(ctx context.Context, id string) (persistence.BlockRecord, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE id = ?`

	var record persistence.BlockRecord
	err := r.retry.WithRetry(ctx, func() error {
		var err error
		record, err = scanBlock(r.pool.DB().QueryRowContext(ctx, query, id))
		return err
	})
	if err != nil {
		return persistence.BlockRecord{}, err
	}
	return record, nil
}

// UpsertBlock inserts or replaces a block by ID. An existing row keeps its
// created_at; updated_at defaults to now when unset.
func (r *BlockRepository) UpsertBlock(ctx context.Context, record persistence.BlockRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	now := r.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	args, err := blockArgs(record)
	if err != nil {
		return err
	}

	query := `INSERT INTO blocks (` + blockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_recurring = excluded.is_recurring,
			recurring_days = excluded.recurring_days,
			recurring_start_date = excluded.recurring_start_date,
			recurring_end_date = excluded.recurring_end_date,
			excluded_dates = excluded.excluded_dates,
			completed = excluded.completed,
			completed_dates = excluded.completed_dates,
			checklist = excluded.checklist,
			category = excluded.category,
			type = excluded.type,
			color = excluded.color,
			meeting_link = excluded.meeting_link,
			notification_time = excluded.notification_time,
			description = excluded.description,
			updated_at = excluded.updated_at`

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, query, args...)
			return err
		})
	})
}

// DeleteBlock removes a block. Missing IDs report persistence.ErrNotFound.
func (r *BlockRepository) DeleteBlock(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return persistence.ErrNotFound
			}
			return nil
		})
	})
}

func validateRecord(record persistence.BlockRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: block id is required", persistence.ErrConstraintViolation)
	}
	if _, err := persistence.FromRecord(record); err != nil {
		return err
	}
	if record.EndTime <= record.StartTime {
		return fmt.Errorf("%w: block %s ends at or before it starts", persistence.ErrConstraintViolation, record.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (persistence.BlockRecord, error) {
	var (
		record                                 persistence.BlockRecord
		isRecurring, completed                 int
		days, excluded, completions, checklist string
		recurringStart, recurringEnd           sql.NullString
		notification                           sql.NullInt64
		createdAt, updatedAt                   string
	)
	if err := row.Scan(
		&record.ID, &record.UserID, &record.Title, &record.Date, &record.StartTime, &record.EndTime,
		&isRecurring, &days, &recurringStart, &recurringEnd, &excluded, &completed, &completions, &checklist,
		&record.Category, &record.Type, &record.Color, &record.MeetingLink, &notification, &record.Description,
		&createdAt, &updatedAt,
	); err != nil {
		return persistence.BlockRecord{}, err
	}

	record.IsRecurring = isRecurring == 1
	record.Completed = completed == 1
	if recurringStart.Valid {
		s := recurringStart.String
		record.RecurringStartDate = &s
	}
	if recurringEnd.Valid {
		s := recurringEnd.String
		record.RecurringEndDate = &s
	}
	if notification.Valid {
		minutes := int(notification.Int64)
		record.NotificationTime = &minutes
	}

	record.RecurringDays = []int{}
	record.ExcludedDates = []string{}
	record.CompletedDates = []string{}
	record.Checklist = []persistence.ChecklistItemRecord{}
	for _, column := range []struct {
		raw    string
		target any
	}{
		{days, &record.RecurringDays},
		{excluded, &record.ExcludedDates},
		{completions, &record.CompletedDates},
		{checklist, &record.Checklist},
	} {
		if err := json.Unmarshal([]byte(column.raw), column.target); err != nil {
			return persistence.BlockRecord{}, fmt.Errorf("%w: block %s has malformed JSON column: %v", persistence.ErrConstraintViolation, record.ID, err)
		}
	}

	var err error
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.BlockRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return persistence.BlockRecord{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return record, nil
}

func blockArgs(record persistence.BlockRecord) ([]any, error) {
	encode := func(v any) (string, error) {
		payload, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	days, err := encode(nonNil(record.RecurringDays))
	if err != nil {
		return nil, err
	}
	excluded, err := encode(nonNil(record.ExcludedDates))
	if err != nil {
		return nil, err
	}
	completions, err := encode(nonNil(record.CompletedDates))
	if err != nil {
		return nil, err
	}
	checklist, err := encode(nonNil(record.Checklist))
	if err != nil {
		return nil, err
	}

	var recurringStart, recurringEnd sql.NullString
	if record.RecurringStartDate != nil {
		recurringStart = sql.NullString{String: *record.RecurringStartDate, Valid: true}
	}
	if record.RecurringEndDate != nil {
		recurringEnd = sql.NullString{String: *record.RecurringEndDate, Valid: true}
	}
	var notification sql.NullInt64
	if record.NotificationTime != nil {
		notification = sql.NullInt64{Int64: int64(*record.NotificationTime), Valid: true}
	}

	return []any{
		record.ID, record.UserID, record.Title, record.Date, record.StartTime, record.EndTime,
		boolInt(record.IsRecurring), days, recurringStart, recurringEnd, excluded,
		boolInt(record.Completed), completions, checklist,
		record.Category, record.Type, record.Color, record.MeetingLink, notification, record.Description,
		record.CreatedAt.UTC().Format(time.RFC3339Nano), record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
