package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
)

const defaultAlertRetentionDays = 30

type sweeper interface {
	Sweep(ctx context.Context) (reminders.SweepResult, error)
}

type dispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (reminders.DispatchResult, error)
}

type readAlertPurger interface {
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

// NewAlertSweepJob re-evaluates every product for stock and expiry alerts.
func NewAlertSweepJob(svc sweeper, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &alertSweepJob{svc: svc, logg: logg}, nil
}

type alertSweepJob struct {
	svc  sweeper
	logg *logger.Logger
}

func (j *alertSweepJob) Name() string { return "alert-sweep" }

func (j *alertSweepJob) Run(ctx context.Context) error {
	result, err := j.svc.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("alert sweep: %d of %d products failed: %w", result.Failed, result.Checked, err)
	}
	return nil
}

// NewDosageDispatchJob fires due medication reminders.
func NewDosageDispatchJob(svc dispatcher, logg *logger.Logger) (Job, error) {
	if svc == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &dosageDispatchJob{svc: svc, logg: logg, now: time.Now}, nil
}

type dosageDispatchJob struct {
	svc  dispatcher
	logg *logger.Logger
	now  func() time.Time
}

func (j *dosageDispatchJob) Name() string { return "dosage-dispatch" }

func (j *dosageDispatchJob) Run(ctx context.Context) error {
	result, err := j.svc.DispatchDue(ctx, j.now().UTC())
	if result.Fired > 0 || result.Removed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"fired":    result.Fired,
			"advanced": result.Advanced,
			"removed":  result.Removed,
		})
		j.logg.Info(logCtx, "dosage.dispatched")
	}
	if err != nil {
		return fmt.Errorf("dosage dispatch: %w", err)
	}
	return nil
}

// AlertRetentionJobParams configure the read-alert cleanup.
type AlertRetentionJobParams struct {
	Logger        *logger.Logger
	Purger        readAlertPurger
	RetentionDays int
}

// NewAlertRetentionJob deletes read alerts older than the retention window.
func NewAlertRetentionJob(params AlertRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("alert purger required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultAlertRetentionDays
	}
	return &alertRetentionJob{logg: params.Logger, purger: params.Purger, retention: retention}, nil
}

type alertRetentionJob struct {
	logg      *logger.Logger
	purger    readAlertPurger
	retention int
}

func (j *alertRetentionJob) Name() string { return "alert-retention" }

func (j *alertRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.purger.PurgeRead(ctx, time.Duration(j.retention)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("alert retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "alert retention complete")
	return nil
}
