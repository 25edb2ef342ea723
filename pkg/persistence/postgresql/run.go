package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
)

const runColumns = `
			id
		  , payment_id
		  , payment_number
		  , trigger_kind
		  , state
		  , reason
		  , logs
		  , started_at
		  , finished_at`

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Save(ctx context.Context, record models.RunRecord) error {
	if record.ID == "" {
		return persistence.NewRunError("Save", record.ID, persistence.ErrInvalidRun)
	}

	query := `
		INSERT INTO run_records (id, payment_id, payment_number, trigger_kind, state, reason, logs, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			payment_id = EXCLUDED.payment_id,
			payment_number = EXCLUDED.payment_number,
			trigger_kind = EXCLUDED.trigger_kind,
			state = EXCLUDED.state,
			reason = EXCLUDED.reason,
			logs = EXCLUDED.logs,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PaymentID,
		record.PaymentNumber,
		string(record.Trigger),
		string(record.State),
		record.Reason,
		record.Logs,
		record.StartedAt.UTC(),
		record.FinishedAt.UTC(),
	)
	if err != nil {
		return persistence.NewRunError("Save", record.ID, fmt.Errorf("failed to save run record: %w", err))
	}

	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	query := `SELECT` + runColumns + `
		FROM run_records
		WHERE id = $1
	`

	record, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByID", id, fmt.Errorf("failed to scan run record: %w", err))
	}

	return &record, nil
}

func (r *RunRepository) List(ctx context.Context, opts persistence.ListRunsOptions) ([]models.RunRecord, error) {
	opts = opts.Normalize()

	var (
		conditions []string
		args       []any
	)

	addCondition := func(column string, value string) {
		if value == "" {
			return
		}

		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addCondition("payment_id", opts.PaymentID)
	addCondition("state", string(opts.State))
	addCondition("trigger_kind", string(opts.Trigger))

	query := `SELECT` + runColumns + `
		FROM run_records`

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, opts.Limit)
	query += fmt.Sprintf("\n\t\tORDER BY finished_at DESC, id\n\t\tLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRunError("List", "", fmt.Errorf("failed to query run records: %w", err))
	}

	defer func() {
		_ = rows.Close()
	}()

	records := make([]models.RunRecord, 0)

	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, persistence.NewRunError("List", "", fmt.Errorf("failed to scan run record: %w", err))
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRunError("List", "", fmt.Errorf("error iterating run records: %w", err))
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (models.RunRecord, error) {
	var (
		record  models.RunRecord
		trigger string
		state   string
	)

	err := row.Scan(
		&record.ID,
		&record.PaymentID,
		&record.PaymentNumber,
		&trigger,
		&state,
		&record.Reason,
		&record.Logs,
		&record.StartedAt,
		&record.FinishedAt,
	)
	if err != nil {
		return models.RunRecord{}, err
	}

	record.Trigger = models.TriggerKind(trigger)
	record.State = models.RunState(state)

	return record, nil
}
