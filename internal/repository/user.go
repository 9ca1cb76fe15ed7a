// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"devfolio/internal/cache"
	"devfolio/internal/models"
	"devfolio/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const usersTable = "users"

// ProfileChanges is a partial profile update. Nil fields are left unchanged in storage.
type ProfileChanges struct {
	Name      *string
	Bio       *string
	TechStack *[]string
	Github    *string
	Twitter   *string
}

// assignments returns the columns to write and a User carrying their values.
func (c ProfileChanges) assignments() ([]string, models.User) {
	var (
		cols []string
		vals models.User
	)
	if c.Name != nil {
		cols = append(cols, "name")
		vals.Name = *c.Name
	}
	if c.Bio != nil {
		cols = append(cols, "bio")
		vals.Bio = *c.Bio
	}
	if c.TechStack != nil {
		cols = append(cols, "tech_stack")
		vals.TechStack = *c.TechStack
	}
	if c.Github != nil {
		cols = append(cols, "github")
		vals.Github = *c.Github
	}
	if c.Twitter != nil {
		cols = append(cols, "twitter")
		vals.Twitter = *c.Twitter
	}
	return cols, vals
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*models.User, error)
	SetProfilePicture(ctx context.Context, id, url string) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger(usersTable)}
}

// GetByID returns the user with id, served from the profile cache when possible.
// Cached users carry no password hash.
func (r *userRepository) GetByID(ctx context.Context, id string) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "repository", "users.GetByID", attribute.String("db.table", usersTable))
	defer func() { observability.EndSpan(span, err) }()

	var found models.User
	err = cache.Aside(ctx, cache.UserKey(id), &found, cache.UserTTL, func() error {
		defer observability.TrackQuery("select", usersTable)()
		if err := r.db.WithContext(ctx).First(&found, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User")
			}
			r.log.LogError(ctx, err, "read")
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.LogRead(ctx, map[string]any{"user_id": id})
	return &found, nil
}

// GetByEmail returns the user with email, or (nil, nil) when there is none.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("select", usersTable)()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	r.log.LogRead(ctx, map[string]any{"user_id": user.ID})
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span := observability.StartSpan(ctx, "repository", "users.Create", attribute.String("db.table", usersTable))
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("insert", usersTable)()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID})
	return nil
}

// UpdateProfile writes only the columns present in changes, in a single statement, and
// returns the stored user. Concurrent updates of different fields do not overwrite each other.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (user *models.User, err error) {
	cols, vals := changes.assignments()
	if len(cols) == 0 {
		return r.GetByID(ctx, id)
	}

	ctx, span := observability.StartSpan(ctx, "repository", "users.UpdateProfile", attribute.String("db.table", usersTable))
	defer func() { observability.EndSpan(span, err) }()

	if id == "" {
		return nil, models.NewNotFoundError("User")
	}

	done := observability.TrackQuery("update", usersTable)
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Select(cols).Updates(&vals)
	done()
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User")
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogUpdate(ctx, map[string]any{"user_id": id, "columns": cols})

	defer observability.TrackQuery("select", usersTable)()
	var stored models.User
	if err := r.db.WithContext(ctx).First(&stored, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		r.log.LogError(ctx, err, "read")
		return nil, models.NewInternalError(err)
	}
	return &stored, nil
}

func (r *userRepository) SetProfilePicture(ctx context.Context, id, url string) (err error) {
	ctx, span := observability.StartSpan(ctx, "repository", "users.SetProfilePicture", attribute.String("db.table", usersTable))
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", usersTable)()

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("profile_pic", url)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogUpdate(ctx, map[string]any{"user_id": id, "columns": []string{"profile_pic"}})
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}
