package events

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPublishStoresEvent(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	subject := snowflake.ID(101)

	err := outbox.Publish(context.Background(), Event{
		SubjectID: subject,
		Type:      EventCreditDeducted,
		Payload:   map[string]any{"amount": "-2.00"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var row PlatformEvent
	if err := db.First(&row, "subject_id = ?", subject).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if row.EventType != EventCreditDeducted {
		t.Fatalf("unexpected type %q", row.EventType)
	}
	if row.Published {
		t.Fatal("new event marked published")
	}
	if row.Payload["amount"] != "-2.00" {
		t.Fatalf("payload not stored: %+v", row.Payload)
	}
}

func TestPublishDedupesOnKey(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	subject := snowflake.ID(202)

	event := Event{
		SubjectID: subject,
		Type:      EventAccountDeleted,
		DedupeKey: "account.deleted:202",
	}
	for i := 0; i < 3; i++ {
		if err := outbox.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Model(&PlatformEvent{}).Where("subject_id = ?", subject).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one deduped event, got %d", count)
	}
}

func TestPublishTxRollsBackWithCaller(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	subject := snowflake.ID(303)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := outbox.PublishTx(context.Background(), tx, Event{
			SubjectID: subject,
			Type:      EventCreditPurchased,
		}); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	if err == nil {
		t.Fatal("expected forced error")
	}

	var count int64
	if err := db.Model(&PlatformEvent{}).Where("subject_id = ?", subject).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("event survived rollback: %d rows", count)
	}
}

func TestPublishValidatesEvent(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	ctx := context.Background()

	if err := outbox.Publish(ctx, Event{Type: EventCreditPurchased}); err == nil {
		t.Fatal("expected error for missing subject")
	}
	if err := outbox.Publish(ctx, Event{SubjectID: snowflake.ID(1)}); err == nil {
		t.Fatal("expected error for missing type")
	}
	if err := outbox.PublishTx(ctx, nil, Event{SubjectID: snowflake.ID(1), Type: "x"}); err == nil {
		t.Fatal("expected error for nil transaction")
	}
}

func newTestOutbox(t *testing.T, db *gorm.DB) *Outbox {
	t.Helper()
	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewOutbox(db, node)
}

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&PlatformEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
