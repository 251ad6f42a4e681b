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

// userRow is the users table wire shape
type userRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Role      string    `json:"role"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (r userRow) toDomain() models.User {
	return models.User{
		ID:        r.ID,
		Name:      r.Name,
		Code:      r.Code,
		Role:      models.UserRole(r.Role),
		Email:     r.Email,
		Phone:     r.Phone,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

// Users is the sync adapter for the users table
type Users struct {
	db         *database.DB
	remote     *remote.Client
	configured bool
}

// NewUsers creates the users adapter
func NewUsers(db *database.DB, rc *remote.Client, configured bool) *Users {
	return &Users{db: db, remote: rc, configured: configured}
}

// PullAll fetches all users from the remote authority, refreshes the local
// table and returns the list. Without remote configuration, or on any remote
// failure, the current local contents are returned instead.
func (u *Users) PullAll(ctx context.Context) []models.User {
	if !u.configured {
		return u.localAll()
	}

	var rows []userRow
	if err := u.remote.Select(ctx, "users", remote.NewQuery().Order("name", true), &rows); err != nil {
		log.Printf("⚠️ Sync: users pull failed, using local data: %v", err)
		return u.localAll()
	}

	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}

	replaceAll(u.db, users)
	return users
}

// Authenticate resolves an access code to an active user. The remote lookup
// is preferred; when it fails or is unavailable the local table is consulted.
// An unknown code or an inactive user both yield (nil, nil).
func (u *Users) Authenticate(ctx context.Context, code string) (*models.User, error) {
	if u.configured {
		var rows []userRow
		q := remote.NewQuery().Eq("code", code).Eq("is_active", "true").Limit(1)
		err := u.remote.Select(ctx, "users", q, &rows)
		if err == nil {
			if len(rows) == 0 {
				return nil, nil
			}
			user := rows[0].toDomain()
			log.Printf("✅ Sync: user authenticated remotely: %s", user.Name)
			return &user, nil
		}
		log.Printf("⚠️ Sync: remote authentication failed, falling back to local: %v", err)
	}

	return u.localAuthenticate(code)
}

// Create registers a new user. The remote write goes first; its failure is
// logged but never prevents the local mirror.
func (u *Users) Create(ctx context.Context, user models.User) (string, error) {
	user.ID = newID()
	user.CreatedAt = time.Now().UTC()

	if u.configured {
		row := userRow{
			ID:        user.ID,
			Name:      user.Name,
			Code:      user.Code,
			Role:      string(user.Role),
			Email:     user.Email,
			Phone:     user.Phone,
			IsActive:  user.IsActive,
			CreatedAt: user.CreatedAt,
		}
		if err := u.remote.Insert(ctx, "users", row); err != nil {
			log.Printf("⚠️ Sync: remote user create failed, keeping local copy only: %v", err)
		}
	}

	if err := u.db.Create(&user).Error; err != nil {
		return "", err
	}
	return user.ID, nil
}

func (u *Users) localAll() []models.User {
	var users []models.User
	if err := u.db.Order("name").Find(&users).Error; err != nil {
		log.Printf("⚠️ Sync: local users read failed: %v", err)
		return nil
	}
	return users
}

func (u *Users) localAuthenticate(code string) (*models.User, error) {
	var user models.User
	err := u.db.Where("code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return &user, nil
}
