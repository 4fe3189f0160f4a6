package job

import (
	"context"
	"fmt"
	"time"

	"github.com/utasoy/market-reconciler/internal/db"
)

// PostgresMirror persists every status transition a Store writes as a
// new row, giving multi-instance deployments a durable job audit log
// instead of relying on each replica's local job directory.
type PostgresMirror struct {
	db *db.DB
}

// NewPostgresMirror ensures the audit table exists and returns a
// PostgresMirror backed by conn.
func NewPostgresMirror(ctx context.Context, conn *db.DB) (*PostgresMirror, error) {
	const schema = `
CREATE TABLE IF NOT EXISTS job_status_log (
	id          BIGSERIAL PRIMARY KEY,
	job_id      TEXT NOT NULL,
	status      TEXT NOT NULL,
	progress    INT NOT NULL,
	message     TEXT NOT NULL,
	result_file TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS job_status_log_job_id_idx ON job_status_log (job_id, id);
`
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("job: create audit table: %w", err)
	}
	return &PostgresMirror{db: conn}, nil
}

// Set appends one audit row for jobID's new status. It never replaces
// history, unlike the file Store it mirrors: every transition is kept.
func (m *PostgresMirror) Set(jobID string, status Status) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const insert = `
INSERT INTO job_status_log (job_id, status, progress, message, result_file, error)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := m.db.ExecContext(ctx, insert, jobID, status.Status, status.Progress, status.Message, status.ResultFile, status.Error)
	if err != nil {
		return fmt.Errorf("job: record audit row: %w", err)
	}
	return nil
}

// auditRow is the sqlx scan target for History.
type auditRow struct {
	Status     string    `db:"status"`
	Progress   int       `db:"progress"`
	Message    string    `db:"message"`
	ResultFile string    `db:"result_file"`
	Error      string    `db:"error"`
	RecordedAt time.Time `db:"recorded_at"`
}

// History returns every recorded transition for jobID, oldest first,
// for an operator auditing how a run's status evolved.
func (m *PostgresMirror) History(ctx context.Context, jobID string) ([]Status, error) {
	const query = `
SELECT status, progress, message, result_file, error, recorded_at
FROM job_status_log WHERE job_id = $1 ORDER BY id ASC
`
	var rows []auditRow
	if err := m.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, fmt.Errorf("job: read audit history: %w", err)
	}

	out := make([]Status, 0, len(rows))
	for _, r := range rows {
		out = append(out, Status{
			Status:     r.Status,
			Progress:   r.Progress,
			Message:    r.Message,
			ResultFile: r.ResultFile,
			Error:      r.Error,
			Timestamp:  float64(r.RecordedAt.UnixNano()) / 1e9,
		})
	}
	return out, nil
}
