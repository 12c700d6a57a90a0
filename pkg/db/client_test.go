package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.User{Email: "a@example.com", Name: "A", PasswordHash: "x"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.User{Email: "b@example.com", Name: "B", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestModelsRoundTripOnSQLite(t *testing.T) {
	client := newTestClient(t)
	reorder := 4
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	product := models.Product{
		UserID:         uuid.New(),
		Name:           "Ibuprofen",
		Quantity:       10,
		ReorderPoint:   &reorder,
		ExpiryDate:     expiry,
		Category:       enums.ProductCategoryMedicine,
		ScheduleType:   enums.ScheduleTypeDaily,
		DailyDosages:   `["08:00"]`,
		WeeklyDosages:  "[]",
		CustomSchedule: "[]",
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.ID == uuid.Nil {
		t.Fatal("expected BeforeCreate to assign an id")
	}

	var loaded models.Product
	if err := client.DB().First(&loaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if !loaded.ExpiryDate.Equal(expiry) {
		t.Fatalf("expected expiry %v got %v", expiry, loaded.ExpiryDate)
	}
	if loaded.ReorderPoint == nil || *loaded.ReorderPoint != 4 {
		t.Fatalf("unexpected reorder point %v", loaded.ReorderPoint)
	}
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	client := newTestClient(t)
	user := models.User{Email: "dup@example.com", Name: "Dup", PasswordHash: "x"}
	if err := client.DB().Create(&user).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := client.DB().Create(&models.User{Email: "dup@example.com", Name: "Dup", PasswordHash: "x"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t)
	var user models.User
	err := client.DB().First(&user, "id = ?", uuid.New()).Error
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
