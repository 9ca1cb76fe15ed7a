package service

import (
	"context"
	"strings"

	"devfolio/internal/models"
	"devfolio/internal/repository"
	"devfolio/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries a partial profile update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    string
	Name      *string
	Bio       *string
	TechStack *[]string
	Github    *string
	Twitter   *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (in UpdateProfileInput) validate() error {
	if in.Name != nil {
		if err := validation.ValidateName(*in.Name); err != nil {
			return err
		}
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return err
		}
	}
	if in.TechStack != nil {
		if err := validation.ValidateTechStack(*in.TechStack); err != nil {
			return err
		}
	}
	if in.Github != nil {
		if err := validation.ValidateHandle("github", *in.Github); err != nil {
			return err
		}
	}
	if in.Twitter != nil {
		if err := validation.ValidateHandle("twitter", *in.Twitter); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfile writes the provided fields and returns the stored profile. Only those
// columns are written, so concurrent updates of different fields both survive.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	changes := repository.ProfileChanges{
		Github:  in.Github,
		Twitter: in.Twitter,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		changes.Name = &name
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		changes.Bio = &bio
	}
	if in.TechStack != nil {
		stack := make([]string, 0, len(*in.TechStack))
		for _, tech := range *in.TechStack {
			stack = append(stack, strings.TrimSpace(tech))
		}
		changes.TechStack = &stack
	}

	user, err := s.userRepo.UpdateProfile(ctx, in.UserID, changes)
	if err != nil {
		return nil, models.WithMessage(err, "Failed to update profile")
	}
	return user, nil
}
