package bot

import (
	"strings"
	"testing"

	"crypto-sentinel/internal/domain"
)

func TestNewSkipsWithoutToken(t *testing.T) {
	if b := New(""); b != nil {
		t.Fatal("expected nil bot without a token")
	}
}

func TestStartTelegramBotNilSafe(t *testing.T) {
	StartTelegramBot(nil, "novice_plus", nil, nil, nil, nil)
}

func TestPerformanceReplyScalesAccuracy(t *testing.T) {
	reply := performanceReply(domain.PerformanceStats{
		TotalSignals: 2,
		Accuracy:     0.5,
		AvgReturn:    2.5,
	})
	if !strings.Contains(reply, "Accuracy: 50.0%") {
		t.Fatalf("accuracy fraction must render as a percentage: %q", reply)
	}
	if !strings.Contains(reply, "Evaluated signals: 2") || !strings.Contains(reply, "Avg return: +2.50%") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestPerformanceReplyAllWinners(t *testing.T) {
	reply := performanceReply(domain.PerformanceStats{TotalSignals: 3, Accuracy: 1, AvgReturn: 4})
	if !strings.Contains(reply, "Accuracy: 100.0%") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}
