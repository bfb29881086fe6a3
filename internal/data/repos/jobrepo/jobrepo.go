// Package jobrepo persists the plan job state (pending/running/succeeded/
// failed) the §4.8 poll façade reads, grounded on the teacher's JobRunRepo
// but trimmed to the operations this service actually needs:
// create-on-submit, stage/progress updates during the workflow, heartbeat,
// and terminal success/failure. No method writes the retrying state: activity
// retries run inside Temporal and the row stays running while they do.
package jobrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/takahashiJe/navpack-orchestrator/internal/domain/navpack"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

type Repo interface {
	Create(ctx context.Context, jobID uuid.UUID, payload []byte) (*navpack.JobRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*navpack.JobRun, error)
	MarkRunning(ctx context.Context, id uuid.UUID, packID uuid.UUID) error
	UpdateStage(ctx context.Context, jobID string, stage string, progress int) error
	MarkSucceeded(ctx context.Context, jobID string, packID string, resultJSON []byte) error
	MarkFailed(ctx context.Context, jobID string, errorKind, errorMsg string) error
	Heartbeat(ctx context.Context, id uuid.UUID) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) Repo {
	return &repo{db: db, log: log.With("repo", "JobRepo")}
}

func (r *repo) Create(ctx context.Context, jobID uuid.UUID, payload []byte) (*navpack.JobRun, error) {
	job := &navpack.JobRun{
		ID:      jobID,
		JobType: navpack.JobTypeNavPlan,
		Status:  navpack.JobStatePending,
		Stage:   "queued",
		Payload: payload,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*navpack.JobRun, error) {
	var job navpack.JobRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning transitions pending->running and assigns pack_id exactly
// once: a job retried after a transient failure keeps the same pack_id it
// was first assigned, per §5.
func (r *repo) MarkRunning(ctx context.Context, id uuid.UUID, packID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&navpack.JobRun{}).
		Where("id = ? AND pack_id = ?", id, uuid.Nil).
		Updates(map[string]interface{}{
			"status":       navpack.JobStateRunning,
			"pack_id":      packID,
			"locked_at":    now,
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *repo) UpdateStage(ctx context.Context, jobID string, stage string, progress int) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&navpack.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage":        stage,
			"progress":     progress,
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

// MarkSucceeded writes the manifest's JSON encoding into the job_run row's
// result column, per §3's Job.result field: the poll façade reads this
// column directly rather than re-opening the pack directory on every poll.
func (r *repo) MarkSucceeded(ctx context.Context, jobID string, packID string, resultJSON []byte) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&navpack.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       navpack.JobStateSucceeded,
			"stage":        "done",
			"progress":     100,
			"result":       datatypes.JSON(resultJSON),
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *repo) MarkFailed(ctx context.Context, jobID string, errorKind, errorMsg string) error {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&navpack.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        navpack.JobStateFailed,
			"error_kind":    errorKind,
			"error":         errorMsg,
			"last_error_at": now,
			"updated_at":    now,
		}).Error
}

func (r *repo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&navpack.JobRun{}).
		Where("id = ? AND status = ?", id, navpack.JobStateRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}
