package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "soupdeck.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestRepository_RecordAndListFetches(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	older := FetchRecord{
		PanelID:    "p1",
		URL:        "https://example.com/old",
		StatusCode: 404,
		Outcome:    OutcomeFailed,
		Message:    "fetch https://example.com/old returned status 404 Not Found",
		FetchedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := FetchRecord{
		PanelID:    "p2",
		URL:        "https://example.com/new",
		StatusCode: 200,
		Outcome:    OutcomeFetched,
		BodyBytes:  512,
		Elapsed:    1500 * time.Millisecond,
		FetchedAt:  time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.RecordFetch(ctx, older); err != nil {
		t.Fatalf("RecordFetch returned error: %v", err)
	}
	if err := repo.RecordFetch(ctx, newer); err != nil {
		t.Fatalf("RecordFetch returned error: %v", err)
	}

	listed, err := repo.ListFetches(ctx, 10)
	if err != nil {
		t.Fatalf("ListFetches returned error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 fetches, got %d", len(listed))
	}
	if listed[0].URL != newer.URL {
		t.Fatalf("expected newest first, got %s", listed[0].URL)
	}
	if listed[0].ID == "" {
		t.Fatal("expected generated ID")
	}
	if listed[0].Elapsed != 1500*time.Millisecond || listed[0].BodyBytes != 512 {
		t.Fatalf("unexpected round trip %+v", listed[0])
	}
	if listed[1].Message != older.Message || listed[1].StatusCode != 404 {
		t.Fatalf("unexpected round trip %+v", listed[1])
	}
}

func TestRepository_ListFetches_Limit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	records := make([]FetchRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, FetchRecord{
			PanelID:   "p",
			URL:       "https://example.com",
			Outcome:   OutcomeFetched,
			FetchedAt: time.Date(2026, 2, 1, 10, i, 0, 0, time.UTC),
		})
	}
	if err := repo.SaveFetches(ctx, records); err != nil {
		t.Fatalf("SaveFetches returned error: %v", err)
	}

	listed, err := repo.ListFetches(ctx, 3)
	if err != nil {
		t.Fatalf("ListFetches returned error: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 fetches, got %d", len(listed))
	}
	if listed[0].FetchedAt.Minute() != 4 {
		t.Fatalf("expected newest first, got %v", listed[0].FetchedAt)
	}
}

func TestRepository_CheckWritable(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.CheckWritable(context.Background()); err != nil {
		t.Fatalf("CheckWritable returned error: %v", err)
	}
	if err := repo.CheckWritable(context.Background()); err != nil {
		t.Fatalf("second CheckWritable returned error: %v", err)
	}
}
