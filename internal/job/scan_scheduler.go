package job

import (
	"context"
	"log"
	"time"

	"crypto-sentinel/internal/domain"
	"crypto-sentinel/internal/service"
)

// ScanRunner is the slice of the scan service the scheduler drives.
type ScanRunner interface {
	RunDailyScan(ctx context.Context, persona string) (service.ScanResult, error)
	EvaluatePrevious(ctx context.Context) (domain.EvaluationSummary, error)
}

// ScanScheduler fires the full pipeline once a day at a fixed wall-clock
// time: first it settles yesterday's tracked signals, then it scans.
type ScanScheduler struct {
	runner     ScanRunner
	persona    string
	hour       int
	minute     int
	runOnStart bool
	now        func() time.Time
}

func NewScanScheduler(runner ScanRunner, persona string, hour, minute int, runOnStart bool) *ScanScheduler {
	return &ScanScheduler{
		runner:     runner,
		persona:    persona,
		hour:       hour,
		minute:     minute,
		runOnStart: runOnStart,
		now:        time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (s *ScanScheduler) Start(ctx context.Context) {
	if s.runner == nil {
		log.Println("Scan scheduler disabled: no scan service")
		<-ctx.Done()
		return
	}

	log.Printf("Scan scheduler starting, daily run at %02d:%02d", s.hour, s.minute)

	if s.runOnStart {
		s.runOnce(ctx)
	}

	for {
		wait := s.untilNextRun(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Scan scheduler stopped")
			return
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce evaluates due records before scanning so that the morning
// briefing reflects settled outcomes.
func (s *ScanScheduler) runOnce(ctx context.Context) {
	summary, err := s.runner.EvaluatePrevious(ctx)
	if err != nil {
		log.Printf("scheduled evaluation error: %v", err)
	} else if summary.Evaluated > 0 {
		log.Printf("evaluated %d signals, %d winners", summary.Evaluated, summary.Winners)
	}

	res, err := s.runner.RunDailyScan(ctx, s.persona)
	if err != nil {
		log.Printf("scheduled scan error: %v", err)
		return
	}
	log.Printf("daily scan complete for %s: %d signals", res.Persona, len(res.Signals))
}

// untilNextRun computes the wait to the next wall-clock occurrence. The
// next day's slot is rebuilt with time.Date so a DST transition does not
// shift the run time.
func (s *ScanScheduler) untilNextRun(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, s.hour, s.minute, 0, 0, now.Location())
	}
	return next.Sub(now)
}
