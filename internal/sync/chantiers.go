package sync

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/remote"
)

// chantierRow is the chantiers table wire shape. Technician assignments live
// in the separate chantier_technicians join table.
type chantierRow struct {
	ID            string    `json:"id"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone"`
	ClientEmail   *string   `json:"client_email"`
	Address       string    `json:"address"`
	WorkType      string    `json:"work_type"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Status        string    `json:"status"`
	Notes         *string   `json:"notes"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type chantierTechRow struct {
	ChantierID   string `json:"chantier_id"`
	TechnicianID string `json:"technician_id"`
}

func (r chantierRow) toDomain(technicianIDs []string) models.Chantier {
	if technicianIDs == nil {
		technicianIDs = []string{}
	}
	return models.Chantier{
		ID:              r.ID,
		ClientName:      r.ClientName,
		ClientPhone:     r.ClientPhone,
		ClientEmail:     r.ClientEmail,
		Address:         r.Address,
		WorkType:        r.WorkType,
		StartDatetime:   r.StartDatetime,
		EndDatetime:     r.EndDatetime,
		Status:          models.ChantierStatus(r.Status),
		Notes:           r.Notes,
		TechnicianIDs:   technicianIDs,
		CreatedBy:       r.CreatedBy,
		RemoteConfirmed: true,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ChantierUpdate is a sparse update: only non-nil fields are applied, both
// remotely and to the local mirror.
type ChantierUpdate struct {
	ClientName    *string
	ClientPhone   *string
	ClientEmail   *string
	Address       *string
	WorkType      *string
	StartDatetime *time.Time
	EndDatetime   *time.Time
	Status        *models.ChantierStatus
	Notes         *string
	TechnicianIDs []string
}

// Chantiers is the sync adapter for chantiers and their technician
// assignments
type Chantiers struct {
	db         *database.DB
	remote     *remote.Client
	configured bool
}

// NewChantiers creates the chantiers adapter
func NewChantiers(db *database.DB, rc *remote.Client, configured bool) *Chantiers {
	return &Chantiers{db: db, remote: rc, configured: configured}
}

// PullAll fetches every chantier with its technician assignments, refreshes
// the local table and returns the list with time-derived statuses applied.
// Remote failures degrade to the local contents.
func (c *Chantiers) PullAll(ctx context.Context) []models.Chantier {
	if !c.configured {
		return c.localAll()
	}

	var rows []chantierRow
	if err := c.remote.Select(ctx, "chantiers", remote.NewQuery().Order("start_datetime", true), &rows); err != nil {
		log.Printf("⚠️ Sync: chantiers pull failed, using local data: %v", err)
		return c.localAll()
	}

	var joins []chantierTechRow
	if err := c.remote.Select(ctx, "chantier_technicians", remote.NewQuery(), &joins); err != nil {
		log.Printf("⚠️ Sync: technician assignments pull failed, using local data: %v", err)
		return c.localAll()
	}

	chantiers := materialize(rows, joins)
	replaceAll(c.db, chantiers)

	applyAutoStatusList(chantiers, time.Now())
	return chantiers
}

// PullForTechnician fetches the chantiers assigned to one technician. Each
// returned chantier carries its full technician list, not just the requesting
// one. Rows are mirrored locally by id; the rest of the local table is left
// alone so other technicians' offline data survives.
func (c *Chantiers) PullForTechnician(ctx context.Context, technicianID string) []models.Chantier {
	if !c.configured {
		return c.localForTechnician(technicianID)
	}

	var mine []chantierTechRow
	q := remote.NewQuery().Eq("technician_id", technicianID)
	if err := c.remote.Select(ctx, "chantier_technicians", q, &mine); err != nil {
		log.Printf("⚠️ Sync: technician assignments pull failed, using local data: %v", err)
		return c.localForTechnician(technicianID)
	}
	if len(mine) == 0 {
		return []models.Chantier{}
	}

	ids := make([]string, 0, len(mine))
	for _, j := range mine {
		ids = append(ids, j.ChantierID)
	}

	var rows []chantierRow
	q = remote.NewQuery().In("id", ids).Order("start_datetime", true)
	if err := c.remote.Select(ctx, "chantiers", q, &rows); err != nil {
		log.Printf("⚠️ Sync: chantiers pull failed, using local data: %v", err)
		return c.localForTechnician(technicianID)
	}

	var joins []chantierTechRow
	if err := c.remote.Select(ctx, "chantier_technicians", remote.NewQuery().In("chantier_id", ids), &joins); err != nil {
		log.Printf("⚠️ Sync: technician assignments pull failed, using local data: %v", err)
		return c.localForTechnician(technicianID)
	}

	chantiers := materialize(rows, joins)
	for i := range chantiers {
		if err := upsert(c.db, &chantiers[i]); err != nil {
			log.Printf("⚠️ Sync: failed to mirror chantier %s locally: %v", chantiers[i].ID, err)
		}
	}

	applyAutoStatusList(chantiers, time.Now())
	return chantiers
}

// Get returns a single chantier from the local store
func (c *Chantiers) Get(id string) (*models.Chantier, error) {
	var ch models.Chantier
	if err := c.db.First(&ch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ApplyAutoStatus(&ch, time.Now())
	return &ch, nil
}

// Create writes a new chantier remote-first: the chantier row, then one join
// row per assigned technician. The local mirror is written regardless, with
// RemoteConfirmed recording whether the authority acknowledged the write.
func (c *Chantiers) Create(ctx context.Context, ch models.Chantier) (string, error) {
	now := time.Now().UTC()
	ch.ID = newID()
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if ch.TechnicianIDs == nil {
		ch.TechnicianIDs = []string{}
	}

	if c.configured {
		row := chantierRow{
			ID:            ch.ID,
			ClientName:    ch.ClientName,
			ClientPhone:   ch.ClientPhone,
			ClientEmail:   ch.ClientEmail,
			Address:       ch.Address,
			WorkType:      ch.WorkType,
			StartDatetime: ch.StartDatetime,
			EndDatetime:   ch.EndDatetime,
			Status:        string(ch.Status),
			Notes:         ch.Notes,
			CreatedBy:     ch.CreatedBy,
			CreatedAt:     ch.CreatedAt,
			UpdatedAt:     ch.UpdatedAt,
		}
		err := c.remote.Insert(ctx, "chantiers", row)
		if err == nil && len(ch.TechnicianIDs) > 0 {
			err = c.remote.Insert(ctx, "chantier_technicians", joinRows(ch.ID, ch.TechnicianIDs))
		}
		if err != nil {
			log.Printf("⚠️ Sync: remote chantier create failed, keeping local copy only: %v", err)
		} else {
			ch.RemoteConfirmed = true
		}
	}

	if err := c.db.Create(&ch).Error; err != nil {
		return "", err
	}
	return ch.ID, nil
}

// Update applies a sparse update to one chantier. A non-nil TechnicianIDs
// replaces the full assignment set: remotely the join rows are deleted and
// reinserted, locally the JSON column is overwritten.
func (c *Chantiers) Update(ctx context.Context, id string, upd ChantierUpdate) error {
	var ch models.Chantier
	if err := c.db.First(&ch, "id = ?", id).Error; err != nil {
		return err
	}

	values := map[string]interface{}{}
	setString := func(col string, v *string, dst *string) {
		if v != nil {
			values[col] = *v
			*dst = *v
		}
	}
	setString("client_name", upd.ClientName, &ch.ClientName)
	setString("client_phone", upd.ClientPhone, &ch.ClientPhone)
	setString("address", upd.Address, &ch.Address)
	setString("work_type", upd.WorkType, &ch.WorkType)
	if upd.ClientEmail != nil {
		values["client_email"] = *upd.ClientEmail
		ch.ClientEmail = upd.ClientEmail
	}
	if upd.StartDatetime != nil {
		values["start_datetime"] = *upd.StartDatetime
		ch.StartDatetime = *upd.StartDatetime
	}
	if upd.EndDatetime != nil {
		values["end_datetime"] = *upd.EndDatetime
		ch.EndDatetime = *upd.EndDatetime
	}
	if upd.Status != nil {
		values["status"] = string(*upd.Status)
		ch.Status = *upd.Status
	}
	if upd.Notes != nil {
		values["notes"] = *upd.Notes
		ch.Notes = upd.Notes
	}
	ch.UpdatedAt = time.Now().UTC()
	values["updated_at"] = ch.UpdatedAt

	if c.configured {
		if err := c.remote.Update(ctx, "chantiers", remote.NewQuery().Eq("id", id), values); err != nil {
			log.Printf("⚠️ Sync: remote chantier update failed, keeping local change only: %v", err)
		}
		if upd.TechnicianIDs != nil {
			if err := c.remote.Delete(ctx, "chantier_technicians", remote.NewQuery().Eq("chantier_id", id)); err != nil {
				log.Printf("⚠️ Sync: failed to clear technician assignments remotely: %v", err)
			} else if len(upd.TechnicianIDs) > 0 {
				if err := c.remote.Insert(ctx, "chantier_technicians", joinRows(id, upd.TechnicianIDs)); err != nil {
					log.Printf("⚠️ Sync: failed to rewrite technician assignments remotely: %v", err)
				}
			}
		}
	}

	if upd.TechnicianIDs != nil {
		ch.TechnicianIDs = upd.TechnicianIDs
	}
	return c.db.Save(&ch).Error
}

// Delete removes a chantier locally and remotely. Remotely the join rows go
// first so no orphaned assignment survives the parent.
func (c *Chantiers) Delete(ctx context.Context, id string) error {
	if c.configured {
		if err := c.remote.Delete(ctx, "chantier_technicians", remote.NewQuery().Eq("chantier_id", id)); err != nil {
			log.Printf("⚠️ Sync: failed to delete technician assignments remotely: %v", err)
		}
		if err := c.remote.Delete(ctx, "chantiers", remote.NewQuery().Eq("id", id)); err != nil {
			log.Printf("⚠️ Sync: remote chantier delete failed, deleting locally anyway: %v", err)
		}
	}
	return c.db.Delete(&models.Chantier{}, "id = ?", id).Error
}

// materialize joins the chantier rows with their technician assignments
func materialize(rows []chantierRow, joins []chantierTechRow) []models.Chantier {
	byChantier := make(map[string][]string)
	for _, j := range joins {
		byChantier[j.ChantierID] = append(byChantier[j.ChantierID], j.TechnicianID)
	}

	chantiers := make([]models.Chantier, 0, len(rows))
	for _, r := range rows {
		chantiers = append(chantiers, r.toDomain(byChantier[r.ID]))
	}
	return chantiers
}

func joinRows(chantierID string, technicianIDs []string) []chantierTechRow {
	rows := make([]chantierTechRow, 0, len(technicianIDs))
	for _, tid := range technicianIDs {
		rows = append(rows, chantierTechRow{ChantierID: chantierID, TechnicianID: tid})
	}
	return rows
}

func (c *Chantiers) localAll() []models.Chantier {
	var chantiers []models.Chantier
	if err := c.db.Order("start_datetime").Find(&chantiers).Error; err != nil {
		log.Printf("⚠️ Sync: local chantiers read failed: %v", err)
		return nil
	}
	applyAutoStatusList(chantiers, time.Now())
	return chantiers
}

// localForTechnician filters the local table in memory: the assignment list
// is a JSON column and containment queries are not portable across the
// supported database drivers.
func (c *Chantiers) localForTechnician(technicianID string) []models.Chantier {
	all := c.localAll()
	mine := make([]models.Chantier, 0, len(all))
	for _, ch := range all {
		for _, tid := range ch.TechnicianIDs {
			if tid == technicianID {
				mine = append(mine, ch)
				break
			}
		}
	}
	return mine
}
