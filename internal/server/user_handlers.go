package server

import (
	"io"

	"devfolio/internal/models"
	"devfolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is a partial profile update. Absent and null fields are left unchanged.
type UpdateProfileRequest struct {
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	TechStack *[]string `json:"techStack"`
	Github    *string   `json:"github"`
	Twitter   *string   `json:"twitter"`
}

// PictureResponse carries the hosted picture URL.
type PictureResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// GetProfile returns the caller's profile
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user.ToProfile())
}

// UpdateProfile updates the caller's profile
// @Summary Update current user profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} AuthUserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:    userID,
		Name:      req.Name,
		Bio:       req.Bio,
		TechStack: req.TechStack,
		Github:    req.Github,
		Twitter:   req.Twitter,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(AuthUserResponse{
		Message: "Profile updated",
		User:    user.ToResponse(),
	})
}

// UploadProfilePicture replaces the caller's profile picture
// @Summary Upload profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param profilePic formData file true "JPEG or PNG image"
// @Success 200 {object} PictureResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /user/upload-profile-picture [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	fileHeader, err := c.FormFile("profilePic")
	if err != nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	// One byte past the limit is enough for the service to reject the file.
	content, err := io.ReadAll(io.LimitReader(file, s.pictureService.MaxUploadSizeBytes()+1))
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := s.pictureService.UploadProfilePicture(ctx, service.UploadPictureInput{
		UserID:   userID,
		Filename: fileHeader.Filename,
		Content:  content,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(PictureResponse{
		Message: "Profile picture updated",
		URL:     url,
	})
}
