package sync

import (
	"context"
	"log"
	"time"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/remote"
	"github.com/batizy/chantierpro/internal/storage"
)

// rapportRow is the rapports table wire shape
type rapportRow struct {
	ID                   string                `json:"id"`
	ChantierID           string                `json:"chantier_id"`
	TechnicianID         string                `json:"technician_id"`
	StartTime            time.Time             `json:"start_time"`
	EndTime              *time.Time            `json:"end_time"`
	QuantitiesUsed       []models.QuantityUsed `json:"quantities_used"`
	HasProblems          bool                  `json:"has_problems"`
	ProblemsDescription  *string               `json:"problems_description"`
	HasExtraWork         bool                  `json:"has_extra_work"`
	ExtraWorkDescription *string               `json:"extra_work_description"`
	ClientSignature      *string               `json:"client_signature"`
	Photos               []string              `json:"photos"`
	Status               string                `json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
}

func (r rapportRow) toDomain() models.Rapport {
	quantities := r.QuantitiesUsed
	if quantities == nil {
		quantities = []models.QuantityUsed{}
	}
	photos := r.Photos
	if photos == nil {
		photos = []string{}
	}
	syncedAt := r.CreatedAt
	return models.Rapport{
		ID:                   r.ID,
		ChantierID:           r.ChantierID,
		TechnicianID:         r.TechnicianID,
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		QuantitiesUsed:       quantities,
		HasProblems:          r.HasProblems,
		ProblemsDescription:  r.ProblemsDescription,
		HasExtraWork:         r.HasExtraWork,
		ExtraWorkDescription: r.ExtraWorkDescription,
		ClientSignature:      r.ClientSignature,
		PhotoURLs:            photos,
		Status:               models.RapportStatus(r.Status),
		RemoteConfirmed:      true,
		CreatedAt:            r.CreatedAt,
		SyncedAt:             &syncedAt,
	}
}

func toRapportRow(rapport models.Rapport) rapportRow {
	return rapportRow{
		ID:                   rapport.ID,
		ChantierID:           rapport.ChantierID,
		TechnicianID:         rapport.TechnicianID,
		StartTime:            rapport.StartTime,
		EndTime:              rapport.EndTime,
		QuantitiesUsed:       rapport.QuantitiesUsed,
		HasProblems:          rapport.HasProblems,
		ProblemsDescription:  rapport.ProblemsDescription,
		HasExtraWork:         rapport.HasExtraWork,
		ExtraWorkDescription: rapport.ExtraWorkDescription,
		ClientSignature:      rapport.ClientSignature,
		Photos:               rapport.PhotoURLs,
		Status:               string(rapport.Status),
		CreatedAt:            rapport.CreatedAt,
	}
}

// Rapports is the sync adapter for end-of-job rapports. Submission is the
// one flow that must never lose data, so it writes locally no matter what and
// defers the remote write to the outbox whenever connectivity fails.
type Rapports struct {
	db         *database.DB
	remote     *remote.Client
	photos     *storage.PhotoStore
	outbox     *Outbox
	configured bool
	online     func() bool
}

// NewRapports creates the rapports adapter. online reports current
// connectivity to the remote authority.
func NewRapports(db *database.DB, rc *remote.Client, photos *storage.PhotoStore, outbox *Outbox, configured bool, online func() bool) *Rapports {
	return &Rapports{db: db, remote: rc, photos: photos, outbox: outbox, configured: configured, online: online}
}

// PullAll fetches all rapports from the remote authority, newest first. Rows
// are mirrored by id rather than replacing the table: a locally submitted
// rapport that has not reached the authority yet must survive the pull.
func (r *Rapports) PullAll(ctx context.Context) []models.Rapport {
	if !r.configured {
		return r.localAll()
	}

	var rows []rapportRow
	if err := r.remote.Select(ctx, "rapports", remote.NewQuery().Order("created_at", false), &rows); err != nil {
		log.Printf("⚠️ Sync: rapports pull failed, using local data: %v", err)
		return r.localAll()
	}

	rapports := make([]models.Rapport, 0, len(rows))
	for _, row := range rows {
		rapport := row.toDomain()
		if err := upsert(r.db, &rapport); err != nil {
			log.Printf("⚠️ Sync: failed to mirror rapport %s locally: %v", rapport.ID, err)
		}
		rapports = append(rapports, rapport)
	}
	return rapports
}

// PullForChantier fetches one chantier's rapports, mirroring them locally
func (r *Rapports) PullForChantier(ctx context.Context, chantierID string) []models.Rapport {
	if !r.configured {
		return r.localForChantier(chantierID)
	}

	var rows []rapportRow
	q := remote.NewQuery().Eq("chantier_id", chantierID).Order("created_at", false)
	if err := r.remote.Select(ctx, "rapports", q, &rows); err != nil {
		log.Printf("⚠️ Sync: rapports pull failed, using local data: %v", err)
		return r.localForChantier(chantierID)
	}

	rapports := make([]models.Rapport, 0, len(rows))
	for _, row := range rows {
		rapport := row.toDomain()
		if err := upsert(r.db, &rapport); err != nil {
			log.Printf("⚠️ Sync: failed to mirror rapport %s locally: %v", rapport.ID, err)
		}
		rapports = append(rapports, rapport)
	}
	return rapports
}

// Submit runs the full submission pipeline. photos carries the raw in-memory
// image payloads captured during the wizard.
//
// When the remote authority is reachable the photos are uploaded, the rapport
// row is inserted (only if both referenced ids have the remote id shape) and
// the chantier is marked completed remotely. When it is not, or any of that
// fails on connectivity, the whole submission is queued for replay. In every
// case the rapport is persisted locally and the local chantier is marked
// completed, so submission never fails from the technician's point of view.
func (r *Rapports) Submit(ctx context.Context, rapport models.Rapport, photos []string) (string, error) {
	if rapport.ID == "" {
		rapport.ID = newID()
	}
	if rapport.CreatedAt.IsZero() {
		rapport.CreatedAt = time.Now().UTC()
	}
	rapport.Status = models.RapportSubmitted
	if photos == nil {
		photos = []string{}
	}
	rapport.PhotoURLs = photos

	if r.configured && r.online() {
		if err := r.submitRemote(ctx, &rapport, photos); err != nil {
			log.Printf("⚠️ Sync: rapport %s remote submission failed, queueing for replay: %v", rapport.ID, err)
			r.enqueue(rapport, photos)
		}
	} else {
		// Queued even without remote configuration: the outbox is durable
		// and drains on a later launch that has credentials.
		log.Printf("📴 Sync: remote unavailable, queueing rapport %s for replay", rapport.ID)
		r.enqueue(rapport, photos)
	}

	if err := upsert(r.db, &rapport); err != nil {
		return "", err
	}
	r.completeLocalChantier(rapport.ChantierID)

	log.Printf("✅ Sync: rapport %s submitted for chantier %s", rapport.ID, rapport.ChantierID)
	return rapport.ID, nil
}

// Replay re-runs a queued submission. On success the local mirror is
// refreshed with the uploaded photo URLs and the sync marker.
func (r *Rapports) Replay(ctx context.Context, payload models.RapportPayload) error {
	rapport := payload.Rapport
	if err := r.submitRemote(ctx, &rapport, payload.Photos); err != nil {
		return err
	}
	return upsert(r.db, &rapport)
}

// submitRemote uploads the photos, inserts the rapport row and marks the
// chantier completed remotely. Mutates rapport with the resulting photo URLs
// and sync markers. A duplicate-key rejection on the insert means an earlier
// attempt already landed and counts as success.
func (r *Rapports) submitRemote(ctx context.Context, rapport *models.Rapport, photos []string) error {
	urls := r.photos.UploadPhotos(ctx, rapport.ID, photos)
	rapport.PhotoURLs = urls

	if isRemoteID(rapport.ChantierID) && isRemoteID(rapport.TechnicianID) {
		err := r.remote.Insert(ctx, "rapports", toRapportRow(*rapport))
		if err != nil && !isConflict(err) {
			return err
		}
		if isConflict(err) {
			log.Printf("ℹ️ Sync: rapport %s already exists remotely, treating as synced", rapport.ID)
		}
		now := time.Now().UTC()
		rapport.SyncedAt = &now
		rapport.RemoteConfirmed = true
	} else {
		log.Printf("⏭️ Sync: rapport %s references local-only ids, skipping remote insert", rapport.ID)
	}

	if isRemoteID(rapport.ChantierID) {
		values := map[string]interface{}{
			"status":     string(models.StatusCompleted),
			"updated_at": time.Now().UTC(),
		}
		if err := r.remote.Update(ctx, "chantiers", remote.NewQuery().Eq("id", rapport.ChantierID), values); err != nil {
			log.Printf("⚠️ Sync: failed to mark chantier %s completed remotely: %v", rapport.ChantierID, err)
		}
	}
	return nil
}

func (r *Rapports) enqueue(rapport models.Rapport, photos []string) {
	payload := models.RapportPayload{Rapport: rapport, Photos: photos}
	if err := r.outbox.Enqueue(models.PendingRapport, payload); err != nil {
		log.Printf("🚨 Sync: failed to queue rapport %s, local copy is the only record: %v", rapport.ID, err)
	}
}

// completeLocalChantier marks the chantier completed in the local store. The
// completed status is an explicit override that time-based derivation never
// reverts.
func (r *Rapports) completeLocalChantier(chantierID string) {
	err := r.db.Model(&models.Chantier{}).
		Where("id = ?", chantierID).
		Updates(map[string]interface{}{"status": string(models.StatusCompleted), "updated_at": time.Now().UTC()}).Error
	if err != nil {
		log.Printf("⚠️ Sync: failed to mark local chantier %s completed: %v", chantierID, err)
	}
}

func (r *Rapports) localAll() []models.Rapport {
	var rapports []models.Rapport
	if err := r.db.Order("created_at desc").Find(&rapports).Error; err != nil {
		log.Printf("⚠️ Sync: local rapports read failed: %v", err)
		return nil
	}
	return rapports
}

func (r *Rapports) localForChantier(chantierID string) []models.Rapport {
	var rapports []models.Rapport
	err := r.db.Where("chantier_id = ?", chantierID).Order("created_at desc").Find(&rapports).Error
	if err != nil {
		log.Printf("⚠️ Sync: local rapports read failed: %v", err)
		return nil
	}
	return rapports
}
