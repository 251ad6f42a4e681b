package sync

import (
	"context"
	"log"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/remote"
)

type workTypeRow struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Materials []models.Material `json:"materials"`
}

// WorkTypes is the sync adapter for the work type reference data
type WorkTypes struct {
	db         *database.DB
	remote     *remote.Client
	configured bool
}

// NewWorkTypes creates the work types adapter
func NewWorkTypes(db *database.DB, rc *remote.Client, configured bool) *WorkTypes {
	return &WorkTypes{db: db, remote: rc, configured: configured}
}

// PullAll refreshes the local work type table from the remote authority and
// returns the list, falling back to local contents on any failure.
func (w *WorkTypes) PullAll(ctx context.Context) []models.WorkType {
	if !w.configured {
		return w.localAll()
	}

	var rows []workTypeRow
	if err := w.remote.Select(ctx, "work_types", remote.NewQuery().Order("name", true), &rows); err != nil {
		log.Printf("⚠️ Sync: work types pull failed, using local data: %v", err)
		return w.localAll()
	}

	types := make([]models.WorkType, 0, len(rows))
	for _, r := range rows {
		materials := r.Materials
		if materials == nil {
			materials = []models.Material{}
		}
		types = append(types, models.WorkType{ID: r.ID, Name: r.Name, Materials: materials})
	}

	replaceAll(w.db, types)
	return types
}

func (w *WorkTypes) localAll() []models.WorkType {
	var types []models.WorkType
	if err := w.db.Order("name").Find(&types).Error; err != nil {
		log.Printf("⚠️ Sync: local work types read failed: %v", err)
		return nil
	}
	return types
}
