package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/govdesk/govdesk/internal/auth"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCredentialUpgrade migrates a legacy-digest credential to the
	// modern hash scheme after a successful login surfaced the signal.
	TaskCredentialUpgrade = "credential:upgrade"
	// TaskLegacyScan reports how many accounts still hold a legacy digest.
	TaskLegacyScan = "credential:scan"

	// CronLegacyScan runs the scan nightly.
	CronLegacyScan = "0 3 * * *"
)

// CredentialUpgradePayload carries the already-derived replacement hash and
// the digest it replaces. The plaintext password never enters the queue.
type CredentialUpgradePayload struct {
	UserID    int64  `json:"user_id"`
	NewSecret string `json:"new_secret"`
	OldSecret string `json:"old_secret"`
}

// NewCredentialUpgradeTask constructs an Asynq task.
func NewCredentialUpgradeTask(payload CredentialUpgradePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCredentialUpgrade, data), nil
}

// CredentialUpgradeJob applies queued re-hashes against the credential
// store.
type CredentialUpgradeJob struct {
	repo   auth.Repository
	logger *slog.Logger
}

// NewCredentialUpgradeJob constructs the job handler.
func NewCredentialUpgradeJob(repo auth.Repository, logger *slog.Logger) *CredentialUpgradeJob {
	return &CredentialUpgradeJob{repo: repo, logger: logger}
}

// Handle processes TaskCredentialUpgrade tasks. The swap is conditional on
// the stored secret still being the digest observed at login, so a password
// reset that landed in between wins.
func (j *CredentialUpgradeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CredentialUpgradePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	replaced, err := j.repo.ReplaceSecret(ctx, payload.UserID, payload.NewSecret, payload.OldSecret)
	if err != nil {
		return err
	}
	if j.logger != nil {
		if replaced {
			j.logger.Info("credential upgraded", slog.Int64("user_id", payload.UserID))
		} else {
			j.logger.Info("credential upgrade skipped, secret changed meanwhile", slog.Int64("user_id", payload.UserID))
		}
	}
	return nil
}

// LegacyCounter counts accounts still on the legacy digest scheme.
type LegacyCounter interface {
	CountLegacySecrets(ctx context.Context) (int64, error)
}

// LegacyScanJob logs migration progress so operators can tell when the
// legacy scheme can finally be retired.
type LegacyScanJob struct {
	counter LegacyCounter
	logger  *slog.Logger
}

// NewLegacyScanJob constructs the scan job handler.
func NewLegacyScanJob(counter LegacyCounter, logger *slog.Logger) *LegacyScanJob {
	return &LegacyScanJob{counter: counter, logger: logger}
}

// Handle processes TaskLegacyScan tasks.
func (j *LegacyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	remaining, err := j.counter.CountLegacySecrets(ctx)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("legacy credential scan", slog.Int64("remaining", remaining))
	}
	return nil
}
