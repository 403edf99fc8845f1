package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/loreforge-api/internal/domain"
	"github.com/phrazzld/loreforge-api/internal/store"
)

// jobColumns is the column list every job query selects, in scanJob order.
const jobColumns = `id, world_id, kind, asset_kind, target_id, params, status,
	progress, artifact_ids, completed_count, requested_count, error_message,
	created_at, started_at, completed_at`

// PostgresJobStore implements the store.JobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// Create saves a new job record.
// Returns store.ErrDuplicate if a job with the same ID already exists and
// validation errors if the job data is invalid.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	artifactIDs, err := json.Marshal(job.ArtifactIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact ids: %w", err)
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.WorldID,
		job.Kind,
		job.AssetKind,
		nullableUUID(job.TargetID),
		nullableJSON(job.Params),
		job.Status,
		job.Progress,
		artifactIDs,
		job.CompletedCount,
		job.RequestedCount,
		nullableString(job.ErrorMessage),
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		s.logger.Error("failed to create job",
			"error", err,
			"job_id", job.ID,
			"world_id", job.WorldID)
		return MapError(err)
	}

	return nil
}

// GetByID retrieves a job by its unique ID.
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrJobNotFound
		}
		s.logger.Error("failed to get job",
			"error", err,
			"job_id", id)
		return nil, MapError(err)
	}

	return job, nil
}

// Update applies a partial-field patch to the stored job and returns the
// updated record. Only fields set on the patch are written, so concurrent
// writers never clobber columns they do not own.
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) Update(ctx context.Context, id uuid.UUID, patch store.JobPatch) (*domain.Job, error) {
	assignments := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	appendAssignment := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		appendAssignment("status", *patch.Status)
	}
	if patch.Progress != nil {
		appendAssignment("progress", *patch.Progress)
	}
	if patch.ArtifactIDs != nil {
		artifactIDs, err := json.Marshal(patch.ArtifactIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal artifact ids: %w", err)
		}
		appendAssignment("artifact_ids", artifactIDs)
	}
	if patch.CompletedCount != nil {
		appendAssignment("completed_count", *patch.CompletedCount)
	}
	if patch.ErrorMessage != nil {
		appendAssignment("error_message", nullableString(*patch.ErrorMessage))
	}
	if patch.StartedAt != nil {
		appendAssignment("started_at", *patch.StartedAt)
	}
	if patch.CompletedAt != nil {
		appendAssignment("completed_at", *patch.CompletedAt)
	}

	if len(assignments) == 0 {
		return s.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE jobs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(assignments, ", "),
		len(args),
		jobColumns,
	)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrJobNotFound
		}
		s.logger.Error("failed to update job",
			"error", err,
			"job_id", id)
		return nil, MapError(err)
	}

	return job, nil
}

// ListWorlds returns the distinct world IDs that currently own at least one
// job, ordered for a stable scan sequence.
func (s *PostgresJobStore) ListWorlds(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT world_id FROM jobs ORDER BY world_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("failed to list worlds", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var worlds []uuid.UUID
	for rows.Next() {
		var worldID uuid.UUID
		if err := rows.Scan(&worldID); err != nil {
			return nil, fmt.Errorf("failed to scan world id: %w", err)
		}
		worlds = append(worlds, worldID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating world rows: %w", err)
	}

	return worlds, nil
}

// FindJobsByStatus retrieves a world's jobs with the given status in
// creation order, oldest first.
func (s *PostgresJobStore) FindJobsByStatus(
	ctx context.Context,
	worldID uuid.UUID,
	status domain.JobStatus,
) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE world_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC`

	return s.queryJobs(ctx, query, worldID, status)
}

// FindJobsByWorld retrieves all of a world's jobs in creation order, oldest first.
func (s *PostgresJobStore) FindJobsByWorld(ctx context.Context, worldID uuid.UUID) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE world_id = $1
		ORDER BY created_at ASC, id ASC`

	return s.queryJobs(ctx, query, worldID)
}

// queryJobs runs a multi-row job query and scans the results.
func (s *PostgresJobStore) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to query jobs", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows so scanJob serves both.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJob reads one job row in jobColumns order.
func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job          domain.Job
		targetID     uuid.NullUUID
		params       []byte
		artifactIDs  []byte
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.WorldID,
		&job.Kind,
		&job.AssetKind,
		&targetID,
		&params,
		&job.Status,
		&job.Progress,
		&artifactIDs,
		&job.CompletedCount,
		&job.RequestedCount,
		&errorMessage,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if targetID.Valid {
		job.TargetID = targetID.UUID
	}
	if len(params) > 0 {
		job.Params = json.RawMessage(params)
	}
	if len(artifactIDs) > 0 {
		if err := json.Unmarshal(artifactIDs, &job.ArtifactIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact ids: %w", err)
		}
	}
	job.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

// nullableUUID maps uuid.Nil to SQL NULL so the target_id column stays
// meaningful for batch jobs that carry their targets in the parameter bag.
func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// nullableString maps the empty string to SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableJSON maps an empty parameter bag to SQL NULL.
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
