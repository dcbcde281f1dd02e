package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func newTestRateLimitRepo(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()

	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "school:rate-limit",
		TTL:       2 * time.Minute,
	})
	return repo, server
}

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	repo, server := newTestRateLimitRepo(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "1.2.3.4", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "1.2.3.4", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}

	remaining := server.TTL("school:rate-limit:1.2.3.4")
	if remaining <= 0 || remaining > 2*time.Minute {
		t.Fatalf("expected ttl within (0, 2m], got %v", remaining)
	}
}

func TestRateLimitRepository_CountExcludesAttemptsOutsideWindow(t *testing.T) {
	repo, _ := newTestRateLimitRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "client", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-10*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt inside window, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	repo, _ := newTestRateLimitRepo(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "client", now.Add(-5*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-30*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "client", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	// A count over a very wide window sees only the surviving attempt.
	count, err := repo.CountAttempts(ctx, "client", time.Hour, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected trim to leave 1 attempt, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	repo, _ := newTestRateLimitRepo(t)
	ctx := context.Background()
	now := time.Now()
	oldest := now.Add(-40 * time.Second)

	if err := repo.RecordAttempt(ctx, "client", oldest); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "client", now.Add(-10*time.Second)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	got, found, err := repo.OldestAttempt(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected an attempt inside the window")
	}
	if !got.Equal(time.Unix(0, oldest.UnixNano())) {
		t.Fatalf("expected oldest %v, got %v", oldest, got)
	}
}

func TestRateLimitRepository_OldestAttemptEmpty(t *testing.T) {
	repo, _ := newTestRateLimitRepo(t)

	_, found, err := repo.OldestAttempt(context.Background(), "unknown", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if found {
		t.Fatalf("expected no attempt for unknown identifier")
	}
}

func TestRateLimitRepository_InvalidWindow(t *testing.T) {
	repo, _ := newTestRateLimitRepo(t)
	ctx := context.Background()

	if _, err := repo.CountAttempts(ctx, "client", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in CountAttempts")
	}
	if err := repo.TrimWindow(ctx, "client", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in TrimWindow")
	}
	if _, _, err := repo.OldestAttempt(ctx, "client", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in OldestAttempt")
	}
}
