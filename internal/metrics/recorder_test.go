package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRecordScanAndSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	r := NewRecorder(client, func() time.Time { return now })
	ctx := context.Background()

	if err := r.RecordScan(ctx, "novice_plus", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.RecordScan(ctx, "novice_plus", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.RecordScan(ctx, "sniper", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.PersonaScans["novice_plus"] != 2 || snap.PersonaScans["sniper"] != 1 {
		t.Fatalf("unexpected persona scans: %+v", snap.PersonaScans)
	}
	if snap.SignalsTriggeredToday != 3 {
		t.Fatalf("expected 3 signals today, got %d", snap.SignalsTriggeredToday)
	}
	if !snap.LastScanAt.Equal(now) {
		t.Fatalf("expected last scan %v, got %v", now, snap.LastScanAt)
	}
}

func TestSnapshotCountsResetNextDay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	r := NewRecorder(client, func() time.Time { return now })
	ctx := context.Background()

	if err := r.RecordScan(ctx, "novice_plus", 5); err != nil {
		t.Fatal(err)
	}

	now = now.Add(24 * time.Hour)
	snap, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SignalsTriggeredToday != 0 {
		t.Fatalf("day counter should roll over, got %d", snap.SignalsTriggeredToday)
	}
	if snap.PersonaScans["novice_plus"] != 1 {
		t.Fatalf("persona counters persist across days: %+v", snap.PersonaScans)
	}
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	if err := r.RecordScan(context.Background(), "novice_plus", 1); err != nil {
		t.Fatalf("nil recorder should be a no-op: %v", err)
	}
	snap, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("nil recorder should be a no-op: %v", err)
	}
	if snap.SignalsTriggeredToday != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
