package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/schedule"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ScheduleProduct replaces the product's triggers with ones computed from its
// current schedule. Triggers with no future occurrence are not stored.
func (s *Service) ScheduleProduct(ctx context.Context, product products.Product) error {
	now := s.now()
	triggers := product.Schedule.Triggers()
	rows := make([]models.DosageTrigger, 0, len(triggers))
	for _, trig := range triggers {
		next, ok := trig.NextAfter(now, s.loc)
		if !ok {
			continue
		}
		rows = append(rows, triggerRow(product, trig, next))
	}
	if err := s.repo.ReplaceTriggers(ctx, product.ID, rows); err != nil {
		return fmt.Errorf("schedule dosage triggers: %w", err)
	}

	logCtx := s.logg.WithProductID(ctx, product.ID.String())
	s.logg.Debug(s.logg.WithField(logCtx, "triggers", len(rows)), "dosage.scheduled")
	return nil
}

// CancelProduct removes every trigger of the product.
func (s *Service) CancelProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.DeleteTriggers(ctx, productID); err != nil {
		return fmt.Errorf("cancel dosage triggers: %w", err)
	}
	return nil
}

// DispatchDue fires every trigger due at now. Recurring triggers move to their
// next occurrence and finished ones are deleted. A trigger whose bookkeeping
// fails stops the run so it is not fired twice in one pass.
func (s *Service) DispatchDue(ctx context.Context, now time.Time) (DispatchResult, error) {
	var (
		result DispatchResult
		errs   error
	)
	for {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		due, err := s.repo.DueTriggers(ctx, now, s.dispatchBatch)
		if err != nil {
			return result, multierr.Append(errs, fmt.Errorf("load due triggers: %w", err))
		}
		for _, row := range due {
			if err := s.fire(ctx, row, now, &result); err != nil {
				return result, multierr.Append(errs, err)
			}
		}
		if len(due) < s.dispatchBatch {
			break
		}
	}
	return result, errs
}

func (s *Service) fire(ctx context.Context, row models.DosageTrigger, now time.Time, result *DispatchResult) error {
	product, err := s.products.FindByID(ctx, row.ProductID)
	if err != nil {
		if !db.IsNotFound(err) {
			return fmt.Errorf("load product %s: %w", row.ProductID, err)
		}
		if err := s.repo.DeleteTrigger(ctx, row.ID); err != nil {
			return fmt.Errorf("delete orphan trigger %s: %w", row.ID, err)
		}
		result.Removed++
		return nil
	}

	// The reminder is sent on every fire; only the inbox entry is deduplicated.
	if _, err := s.raise(ctx, enums.AlertTypeDosage, *product, Evaluation{}); err != nil {
		s.logg.Error(s.alertContext(ctx, *product, enums.AlertTypeDosage), "dosage.alert_failed", err)
	}
	s.notify(ctx, *product, notificationFor(enums.AlertTypeDosage, *product, Evaluation{}))
	s.metrics.IncDispatched()
	result.Fired++

	if next, ok := scheduleTrigger(row).NextAfter(now, s.loc); ok {
		if err := s.repo.AdvanceTrigger(ctx, row.ID, next); err != nil {
			return fmt.Errorf("advance trigger %s: %w", row.ID, err)
		}
		result.Advanced++
		return nil
	}
	if err := s.repo.DeleteTrigger(ctx, row.ID); err != nil {
		return fmt.Errorf("delete trigger %s: %w", row.ID, err)
	}
	result.Removed++
	return nil
}

func triggerRow(product products.Product, trig schedule.Trigger, next time.Time) models.DosageTrigger {
	row := models.DosageTrigger{
		ProductID:       product.ID,
		UserID:          product.UserID,
		Kind:            trig.Kind,
		Hour:            trig.Hour,
		Minute:          trig.Minute,
		RepeatEveryDays: trig.RepeatEveryDays,
		NextFireAt:      next.UTC(),
	}
	if trig.Kind == enums.TriggerKindWeekly {
		weekday := trig.Weekday
		row.Weekday = &weekday
	}
	if trig.Kind == enums.TriggerKindDate {
		at := trig.At.UTC()
		row.FireAt = &at
	}
	return row
}

func scheduleTrigger(row models.DosageTrigger) schedule.Trigger {
	trig := schedule.Trigger{
		Kind:            row.Kind,
		Hour:            row.Hour,
		Minute:          row.Minute,
		RepeatEveryDays: row.RepeatEveryDays,
	}
	if row.Weekday != nil {
		trig.Weekday = *row.Weekday
	}
	if row.FireAt != nil {
		trig.At = *row.FireAt
	}
	return trig
}
