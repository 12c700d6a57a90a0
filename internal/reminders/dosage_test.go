package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/schedule"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyProduct(f *fixture, t *testing.T) products.Product {
	return f.addProduct(t, products.Product{
		Name:     "Metformin",
		Quantity: 60,
		Schedule: schedule.Schedule{Type: enums.ScheduleTypeDaily, Daily: []schedule.TimeOfDay{{Hour: 8}, {Hour: 20}}},
	})
}

func TestScheduleProductComputesNextFire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := dailyProduct(f, t)

	require.NoError(t, f.svc.ScheduleProduct(ctx, p))
	rows, err := f.repo.ListTriggers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].NextFireAt.Equal(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)))
	assert.True(t, rows[1].NextFireAt.Equal(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, p.UserID, rows[0].UserID)

	require.NoError(t, f.svc.ScheduleProduct(ctx, p))
	rows, err = f.repo.ListTriggers(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "rescheduling replaces instead of appending")
}

func TestScheduleProductSkipsPastOneShots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, products.Product{
		Quantity: 60,
		Schedule: schedule.Schedule{Type: enums.ScheduleTypeCustom, Custom: []schedule.CustomDose{
			{At: testNow.Add(-time.Hour)},
			{At: testNow.Add(3 * time.Hour)},
			{At: testNow.Add(-time.Hour), RepeatEveryDays: 1},
		}},
	})

	require.NoError(t, f.svc.ScheduleProduct(ctx, p))
	rows, err := f.repo.ListTriggers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].NextFireAt.Equal(testNow.Add(3*time.Hour)))
	assert.True(t, rows[1].NextFireAt.Equal(testNow.Add(23*time.Hour)))
	assert.Equal(t, 1, rows[1].RepeatEveryDays)
}

func TestDispatchDueAdvancesRecurring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := dailyProduct(f, t)
	require.NoError(t, f.svc.ScheduleProduct(ctx, p))

	at := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	result, err := f.svc.DispatchDue(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Fired: 1, Advanced: 1}, result)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Medication Reminder", f.notifier.sent[0].msg.Title)
	assert.Equal(t, "Time to take Metformin", f.notifier.sent[0].msg.Body)
	assert.Equal(t, enums.AlertTypeDosage, f.notifier.sent[0].msg.Kind)

	result, err = f.svc.DispatchDue(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, result, "advanced triggers are not due again")

	result, err = f.svc.DispatchDue(ctx, time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Fired: 2, Advanced: 2}, result)
	assert.Len(t, f.notifier.sent, 3, "every fire notifies")

	alerts := f.alerts(t, p.ID)
	require.Len(t, alerts, 1, "pending dosage alert is not duplicated")
	assert.Equal(t, "Time to take Metformin", alerts[0].Message)

	rows, err := f.repo.ListTriggers(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, rows[0].NextFireAt.Equal(time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)))
	assert.True(t, rows[1].NextFireAt.Equal(time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)))
}

func TestDispatchDueRemovesOneShotsAndOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, products.Product{
		Quantity: 60,
		Schedule: schedule.Schedule{Type: enums.ScheduleTypeCustom, Custom: []schedule.CustomDose{
			{At: testNow.Add(time.Hour)},
			{At: testNow.Add(2 * time.Hour), RepeatEveryDays: 2},
		}},
	})
	require.NoError(t, f.svc.ScheduleProduct(ctx, p))

	orphan := models.DosageTrigger{
		ProductID:  uuid.New(),
		UserID:     uuid.New(),
		Kind:       enums.TriggerKindDaily,
		Hour:       9,
		NextFireAt: testNow,
	}
	require.NoError(t, f.client.DB().Create(&orphan).Error)

	result, err := f.svc.DispatchDue(ctx, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Fired: 2, Advanced: 1, Removed: 2}, result)

	rows, err := f.repo.ListTriggers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].NextFireAt.Equal(testNow.Add(2*time.Hour).AddDate(0, 0, 2)))

	var orphans int64
	require.NoError(t, f.client.DB().Model(&models.DosageTrigger{}).Where("id = ?", orphan.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}
