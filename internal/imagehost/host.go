// Package imagehost stores uploaded pictures and returns their public URLs.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"devfolio/internal/config"
)

// ErrInvalidKey is returned for object keys that are empty or escape the upload root.
var ErrInvalidKey = errors.New("invalid object key")

// Host uploads an object and returns the URL it is served from.
type Host interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// New builds the Host selected by IMAGE_HOST.
func New(ctx context.Context, cfg *config.Config) (Host, error) {
	switch cfg.ImageHost {
	case "s3":
		return NewS3Host(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "local", "":
		return NewLocalHost(cfg.UploadDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown image host %q", cfg.ImageHost)
	}
}

// cleanKey normalizes a slash-separated object key and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
