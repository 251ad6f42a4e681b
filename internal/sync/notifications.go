package sync

import (
	"context"
	"log"
	"time"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/remote"
)

type notificationRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID *string   `json:"related_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (r notificationRow) toDomain() models.Notification {
	return models.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      models.NotificationType(r.Type),
		RelatedID: r.RelatedID,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

// Notifications is the sync adapter for per-user notifications
type Notifications struct {
	db         *database.DB
	remote     *remote.Client
	configured bool
}

// NewNotifications creates the notifications adapter
func NewNotifications(db *database.DB, rc *remote.Client, configured bool) *Notifications {
	return &Notifications{db: db, remote: rc, configured: configured}
}

// PullForUser fetches one user's notifications, newest first. Rows are
// mirrored locally by id; other users' local notifications are untouched.
func (n *Notifications) PullForUser(ctx context.Context, userID string) []models.Notification {
	if !n.configured {
		return n.localForUser(userID)
	}

	var rows []notificationRow
	q := remote.NewQuery().Eq("user_id", userID).Order("created_at", false)
	if err := n.remote.Select(ctx, "notifications", q, &rows); err != nil {
		log.Printf("⚠️ Sync: notifications pull failed, using local data: %v", err)
		return n.localForUser(userID)
	}

	notifications := make([]models.Notification, 0, len(rows))
	for _, r := range rows {
		notif := r.toDomain()
		if err := upsert(n.db, &notif); err != nil {
			log.Printf("⚠️ Sync: failed to mirror notification %s locally: %v", notif.ID, err)
		}
		notifications = append(notifications, notif)
	}
	return notifications
}

// Create writes a notification remote-first with an unconditional local
// mirror and returns the generated id.
func (n *Notifications) Create(ctx context.Context, notif models.Notification) (string, error) {
	notif.ID = newID()
	notif.CreatedAt = time.Now().UTC()

	if n.configured {
		row := notificationRow{
			ID:        notif.ID,
			UserID:    notif.UserID,
			Title:     notif.Title,
			Message:   notif.Message,
			Type:      string(notif.Type),
			RelatedID: notif.RelatedID,
			IsRead:    notif.IsRead,
			CreatedAt: notif.CreatedAt,
		}
		if err := n.remote.Insert(ctx, "notifications", row); err != nil {
			log.Printf("⚠️ Sync: remote notification create failed, keeping local copy only: %v", err)
		}
	}

	if err := n.db.Create(&notif).Error; err != nil {
		return "", err
	}
	return notif.ID, nil
}

// MarkRead flips one notification's read flag on both sides
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	if n.configured {
		values := map[string]interface{}{"is_read": true}
		if err := n.remote.Update(ctx, "notifications", remote.NewQuery().Eq("id", id), values); err != nil {
			log.Printf("⚠️ Sync: remote notification read-flag update failed: %v", err)
		}
	}
	return n.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

// MarkAllRead flips every unread notification of a user on both sides
func (n *Notifications) MarkAllRead(ctx context.Context, userID string) error {
	if n.configured {
		q := remote.NewQuery().Eq("user_id", userID).Eq("is_read", "false")
		if err := n.remote.Update(ctx, "notifications", q, map[string]interface{}{"is_read": true}); err != nil {
			log.Printf("⚠️ Sync: remote bulk read-flag update failed: %v", err)
		}
	}
	return n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (n *Notifications) localForUser(userID string) []models.Notification {
	var notifications []models.Notification
	err := n.db.Where("user_id = ?", userID).Order("created_at desc").Find(&notifications).Error
	if err != nil {
		log.Printf("⚠️ Sync: local notifications read failed: %v", err)
		return nil
	}
	return notifications
}
