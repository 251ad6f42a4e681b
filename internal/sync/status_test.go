package sync

import (
	"testing"
	"time"

	"github.com/batizy/chantierpro/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want models.ChantierStatus
	}{
		{"before window", start.Add(-time.Hour), models.StatusUpcoming},
		{"exactly at start", start, models.StatusInProgress},
		{"inside window", start.Add(24 * time.Hour), models.StatusInProgress},
		{"exactly at end", end, models.StatusCompleted},
		{"after window", end.Add(time.Hour), models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(start, end, tt.now); got != tt.want {
				t.Errorf("DeriveStatus(%v) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestApplyAutoStatusKeepsCompleted(t *testing.T) {
	// A chantier finished early via rapport submission must stay completed
	// even though its scheduled window is still open.
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	ch := models.Chantier{
		Status:        models.StatusCompleted,
		StartDatetime: now.Add(-time.Hour),
		EndDatetime:   now.Add(24 * time.Hour),
	}

	ApplyAutoStatus(&ch, now)
	if ch.Status != models.StatusCompleted {
		t.Errorf("Completed status was reverted to %s", ch.Status)
	}
}

func TestApplyAutoStatusPromotesStaleRecord(t *testing.T) {
	// A record last written before its window opened must read as completed
	// once the window has passed, without any intervening write.
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	ch := models.Chantier{
		Status:        models.StatusUpcoming,
		StartDatetime: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		EndDatetime:   time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC),
	}

	ApplyAutoStatus(&ch, now)
	if ch.Status != models.StatusCompleted {
		t.Errorf("Expected stale record to read completed, got %s", ch.Status)
	}
}
