package metrics

import (
	"context"
	"strconv"
	"time"

	"crypto-sentinel/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	personaScanKey   = "metrics:persona_scans"
	signalsDayKey    = "metrics:signals:" // + YYYYMMDD
	lastScanKey      = "metrics:last_scan"
	signalsDayTTL    = 48 * time.Hour
	dayKeyTimeLayout = "20060102"
)

// Recorder keeps best-effort scan counters in Redis. A nil Recorder is a
// no-op so wiring stays optional.
type Recorder struct {
	client *redis.Client
	now    func() time.Time
}

func NewRecorder(client *redis.Client, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{client: client, now: now}
}

// RecordScan bumps the persona's scan counter and the day's triggered
// signal count.
func (r *Recorder) RecordScan(ctx context.Context, persona string, signalsTriggered int) error {
	if r == nil || r.client == nil {
		return nil
	}

	now := r.now().UTC()
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, personaScanKey, persona, 1)
	dayKey := signalsDayKey + now.Format(dayKeyTimeLayout)
	pipe.IncrBy(ctx, dayKey, int64(signalsTriggered))
	pipe.Expire(ctx, dayKey, signalsDayTTL)
	pipe.Set(ctx, lastScanKey, now.Format(time.RFC3339Nano), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot returns today's counters.
func (r *Recorder) Snapshot(ctx context.Context) (domain.ScanMetrics, error) {
	out := domain.ScanMetrics{PersonaScans: map[string]int{}}
	if r == nil || r.client == nil {
		return out, nil
	}

	scans, err := r.client.HGetAll(ctx, personaScanKey).Result()
	if err != nil {
		return out, err
	}
	for persona, raw := range scans {
		if n, err := strconv.Atoi(raw); err == nil {
			out.PersonaScans[persona] = n
		}
	}

	dayKey := signalsDayKey + r.now().UTC().Format(dayKeyTimeLayout)
	if raw, err := r.client.Get(ctx, dayKey).Result(); err == nil {
		if n, err := strconv.Atoi(raw); err == nil {
			out.SignalsTriggeredToday = n
		}
	} else if err != redis.Nil {
		return out, err
	}

	if raw, err := r.client.Get(ctx, lastScanKey).Result(); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			out.LastScanAt = t
		}
	} else if err != redis.Nil {
		return out, err
	}

	return out, nil
}
