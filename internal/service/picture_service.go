package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"devfolio/internal/imagehost"
	"devfolio/internal/middleware"
	"devfolio/internal/models"
	"devfolio/internal/observability"
	"devfolio/internal/repository"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	PictureFolder       = "profile_pictures"
	PictureMaxSize      = 1024
	DefaultPictureMaxMB = 5
	JPEGQuality         = 82

	// Uploads are decoded in full, so their declared dimensions are bounded first.
	PictureMaxDimension = 10000
	PictureMaxPixels    = 40_000_000
)

const (
	msgInvalidImageFormat  = "Invalid image format"
	msgImageTooLarge       = "Image dimensions too large"
	msgNoFileUploaded      = "No file uploaded"
	msgPictureUploadFailed = "Failed to upload profile picture"
)

type UploadPictureInput struct {
	UserID   string
	Filename string
	Content  []byte
}

type PictureService struct {
	userRepo           repository.UserRepository
	host               imagehost.Host
	maxUploadSizeBytes int64
}

func NewPictureService(userRepo repository.UserRepository, host imagehost.Host, maxUploadSizeMB int) *PictureService {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultPictureMaxMB
	}
	return &PictureService{
		userRepo:           userRepo,
		host:               host,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *PictureService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// UploadProfilePicture validates and downscales the picture, stores it on the image host and
// records the resulting URL on the user. Only the URL is persisted.
func (s *PictureService) UploadProfilePicture(ctx context.Context, in UploadPictureInput) (string, error) {
	url, err := s.upload(ctx, in)
	if err != nil {
		if models.IsKind(err, models.KindValidation) {
			observability.PictureUploads.WithLabelValues("rejected").Inc()
		} else {
			observability.PictureUploads.WithLabelValues("error").Inc()
			middleware.Logger.ErrorContext(ctx, "profile picture upload failed", "error", err)
		}
		return "", err
	}
	observability.PictureUploads.WithLabelValues("success").Inc()
	return url, nil
}

func (s *PictureService) upload(ctx context.Context, in UploadPictureInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError(msgNoFileUploaded)
	}
	if !isAllowedPictureExt(in.Filename) {
		return "", models.NewValidationError(msgInvalidImageFormat)
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || (format != "jpeg" && format != "png") {
		return "", models.NewValidationError(msgInvalidImageFormat)
	}
	if cfg.Width > PictureMaxDimension || cfg.Height > PictureMaxDimension ||
		int64(cfg.Width)*int64(cfg.Height) > PictureMaxPixels {
		return "", models.NewValidationError(msgImageTooLarge)
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || (format != "jpeg" && format != "png") {
		return "", models.NewValidationError(msgInvalidImageFormat)
	}

	resized := resizeToFit(decoded, PictureMaxSize, PictureMaxSize)

	encoded, contentType, ext, err := encodePicture(resized, format)
	if err != nil {
		return "", models.WithMessage(err, msgPictureUploadFailed)
	}

	key := fmt.Sprintf("%s/%s.%s", PictureFolder, uuid.NewString(), ext)
	url, err := s.host.Upload(ctx, key, contentType, encoded)
	if err != nil {
		return "", models.WithMessage(err, msgPictureUploadFailed)
	}

	if err := s.userRepo.SetProfilePicture(ctx, in.UserID, url); err != nil {
		return "", models.WithMessage(err, msgPictureUploadFailed)
	}
	return url, nil
}

func isAllowedPictureExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

func encodePicture(img image.Image, format string) (data []byte, contentType, ext string, err error) {
	buf := bytes.NewBuffer(nil)
	if format == "png" {
		if err := png.Encode(buf, img); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "image/png", "png", nil
	}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "image/jpeg", "jpg", nil
}

// resizeToFit scales src down to fit within maxWidth x maxHeight, keeping its aspect ratio.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
