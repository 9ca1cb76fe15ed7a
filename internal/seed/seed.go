// Package seed creates demo developer profiles for local development.
// It is not used by the server at runtime.
package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"devfolio/internal/auth"
	"devfolio/internal/models"
	"devfolio/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

const batchSize = 100

var handleUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Seeder builds and persists fake developer profiles.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder. The same seed yields the same profiles.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed)}
}

// Clear removes every user.
func (s *Seeder) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.User{}).Error
}

// BuildProfile returns an unsaved user with a filled-in profile and no password.
// i keeps emails unique within a run.
func (s *Seeder) BuildProfile(i int) *models.User {
	f := s.faker

	handle := truncate(handleUnsafe.ReplaceAllString(f.Username(), ""), validation.MaxHandleLength)

	return &models.User{
		Email:     strings.ToLower(fmt.Sprintf("dev%d.%s", i, f.Email())),
		Name:      truncate(f.Name(), validation.MaxNameLength),
		Bio:       truncate(f.JobTitle()+". "+f.HackerPhrase(), validation.MaxBioLength),
		TechStack: s.techStack(f.Number(2, 6)),
		Github:    handle,
		Twitter:   truncate(handle+"_dev", validation.MaxHandleLength),
	}
}

func (s *Seeder) techStack(n int) []string {
	seen := make(map[string]bool, n)
	stack := make([]string, 0, n)
	// the language list is large, so a bounded number of draws is plenty
	for tries := 0; len(stack) < n && tries < n*10; tries++ {
		lang := truncate(s.faker.ProgrammingLanguage(), validation.MaxTechLength)
		if seen[lang] {
			continue
		}
		seen[lang] = true
		stack = append(stack, lang)
	}
	return stack
}

// SeedProfiles creates n users sharing password.
func (s *Seeder) SeedProfiles(ctx context.Context, n int, password string) ([]*models.User, error) {
	if n <= 0 {
		return nil, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u := s.BuildProfile(i)
		u.Password = hash
		users = append(users, u)
	}

	if err := s.db.WithContext(ctx).CreateInBatches(users, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
