package sync

import (
	"time"

	"github.com/batizy/chantierpro/internal/models"
)

// DeriveStatus recomputes a chantier's lifecycle phase from its scheduled
// window: past the end it is completed, before the start it is upcoming,
// otherwise it is in progress. Pure and side-effect free.
func DeriveStatus(start, end, now time.Time) models.ChantierStatus {
	if !now.Before(end) {
		return models.StatusCompleted
	}
	if now.Before(start) {
		return models.StatusUpcoming
	}
	return models.StatusInProgress
}

// ApplyAutoStatus applies time-based derivation to a chantier at read time.
// A stored "termine" is an explicit override written by rapport submission
// and is never reverted, even if the scheduled window says otherwise.
func ApplyAutoStatus(ch *models.Chantier, now time.Time) {
	if ch.Status == models.StatusCompleted {
		return
	}
	ch.Status = DeriveStatus(ch.StartDatetime, ch.EndDatetime, now)
}

// applyAutoStatusList derives the phase of every chantier in the list
func applyAutoStatusList(chantiers []models.Chantier, now time.Time) {
	for i := range chantiers {
		ApplyAutoStatus(&chantiers[i], now)
	}
}
