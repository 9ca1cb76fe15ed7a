package service

import (
	"context"

	"devfolio/internal/models"
	"devfolio/internal/repository"
)

type userRepoStub struct {
	getByIDFn           func(context.Context, string) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	createFn            func(context.Context, *models.User) error
	updateProfileFn     func(context.Context, string, repository.ProfileChanges) (*models.User, error)
	setProfilePictureFn func(context.Context, string, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id string, changes repository.ProfileChanges) (*models.User, error) {
	return s.updateProfileFn(ctx, id, changes)
}
func (s *userRepoStub) SetProfilePicture(ctx context.Context, id, url string) error {
	return s.setProfilePictureFn(ctx, id, url)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:        func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:            func(context.Context, *models.User) error { return nil },
		updateProfileFn: func(_ context.Context, id string, _ repository.ProfileChanges) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		setProfilePictureFn: func(context.Context, string, string) error { return nil },
	}
}

type tokenIssuerStub struct {
	issueFn func(string) (string, error)
}

func (s tokenIssuerStub) Issue(userID string) (string, error) {
	return s.issueFn(userID)
}

type hostStub struct {
	uploadFn func(ctx context.Context, key, contentType string, body []byte) (string, error)
}

func (s hostStub) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	return s.uploadFn(ctx, key, contentType, body)
}
