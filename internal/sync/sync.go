// Package sync implements the offline-first synchronization layer: per-entity
// adapters between the remote authority and the local store, the pending
// operation outbox, the connectivity monitor and the orchestrating manager.
//
// Every adapter follows the same contract: reads prefer the remote authority
// and mirror its rows into the local store, falling back to the (possibly
// stale) local contents on any remote failure; writes go remote-first with an
// unconditional local mirror, so an operation always succeeds from the
// caller's point of view and remote consistency is achieved eventually.
package sync

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/remote"
)

// newID generates a v4 id for records created on-device. The remote authority
// accepts client-generated UUIDs, so ids never need rewriting after sync.
func newID() string {
	return uuid.NewString()
}

// isRemoteID reports whether id has the canonical remote identifier shape.
// Seeded demo records and legacy offline records use non-UUID ids; those must
// never be sent where the remote expects its own id format.
func isRemoteID(id string) bool {
	return uuid.Validate(id) == nil
}

// isConflict reports whether err is a remote duplicate-key rejection. Replays
// reuse the originally generated id, so a conflict means the row already made
// it to the authority and the write can be treated as confirmed.
func isConflict(err error) bool {
	var remoteErr *remote.Error
	return errors.As(err, &remoteErr) && remoteErr.Status == http.StatusConflict
}

// replaceAll refreshes one local table with the authoritative row set. The
// delete and insert run in a single transaction so concurrent readers never
// observe a half-empty table. If the transactional bulk write fails, rows are
// retried one by one with upsert semantics; row-level failures are logged and
// skipped rather than propagated.
func replaceAll[T any](db *database.DB, rows []T) {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T)).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err == nil {
		return
	}

	log.Printf("⚠️ Sync: bulk refresh failed, retrying row by row: %v", err)
	for i := range rows {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows[i]).Error; err != nil {
			log.Printf("⚠️ Sync: failed to save row: %v", err)
		}
	}
}

// upsert writes one row by primary key, overwriting an existing row
func upsert[T any](db *database.DB, row *T) error {
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}
