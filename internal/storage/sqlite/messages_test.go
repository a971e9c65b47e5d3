package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/earshot-dev/earshot/pkg/logger"
)

func newTestStorage(t *testing.T) *MessageStorage {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	storage, err := NewMessageStorage(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return storage
}

func TestStoreAndGetMessage(t *testing.T) {
	storage := newTestStorage(t)

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := storage.StoreMessage(&MessageRecord{
		SID:       "SM123",
		ToNumber:  "+15551234567",
		Body:      "Keyword detected",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Failed to store message: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive insert ID, got %d", id)
	}

	records, err := storage.GetMessages(10, 0)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.SID != "SM123" {
		t.Errorf("Expected SID SM123, got %s", got.SID)
	}
	if got.ToNumber != "+15551234567" {
		t.Errorf("Expected to_number +15551234567, got %s", got.ToNumber)
	}
	if got.Body != "Keyword detected" {
		t.Errorf("Expected body 'Keyword detected', got %q", got.Body)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, got.CreatedAt)
	}
}

func TestGetMessagesNewestFirst(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := storage.StoreMessage(&MessageRecord{
			SID:       fmt.Sprintf("SM%d", i),
			ToNumber:  "+15551234567",
			Body:      fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Failed to store message %d: %v", i, err)
		}
	}

	records, err := storage.GetMessages(10, 0)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	if records[0].SID != "SM2" || records[2].SID != "SM0" {
		t.Errorf("Expected newest-first order, got %s, %s, %s",
			records[0].SID, records[1].SID, records[2].SID)
	}
}

func TestGetMessagesPagination(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := storage.StoreMessage(&MessageRecord{
			SID:       fmt.Sprintf("SM%d", i),
			ToNumber:  "+15551234567",
			Body:      "hi",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Failed to store message %d: %v", i, err)
		}
	}

	page, err := storage.GetMessages(2, 2)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(page))
	}
	if page[0].SID != "SM2" || page[1].SID != "SM1" {
		t.Errorf("Expected SM2, SM1 on second page, got %s, %s", page[0].SID, page[1].SID)
	}
}

func TestGetMessagesEmpty(t *testing.T) {
	storage := newTestStorage(t)

	records, err := storage.GetMessages(10, 0)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}
