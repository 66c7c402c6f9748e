// Package storage uploads user avatars to Cloudinary.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"hackspeech/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Custom errors for specific failure cases.
var (
	ErrNotConfigured      = errors.New("avatar storage is not configured")
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrInvalidExtension   = errors.New("invalid file extension")
	ErrUploadFailed       = errors.New("failed to upload file")
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// AvatarStore stores profile pictures and returns their public URL.
type AvatarStore interface {
	Configured() bool
	Upload(ctx context.Context, userID int64, filename string, file io.Reader) (*UploadResult, error)
}

// UploadResult contains the result of a file upload.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Format   string `json:"format"`
	Size     int    `json:"size"`
}

// assetUploader is the part of the Cloudinary upload API in use.
type assetUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryStore uploads avatars with retries.
type CloudinaryStore struct {
	uploader      assetUploader
	config        config.CloudinaryConfig
	uploadTimeout time.Duration
	logger        *zap.Logger
}

// NewCloudinaryStore returns a store that reports Configured() == false when
// credentials are missing, so callers can answer 503 instead of failing at startup.
func NewCloudinaryStore(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &CloudinaryStore{
		config:        cfg,
		uploadTimeout: 30 * time.Second,
		logger:        logger,
	}

	if !cfg.Configured() {
		logger.Warn("Cloudinary credentials missing, avatar uploads disabled")
		return store, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	store.uploader = &cld.Upload

	logger.Info("Cloudinary avatar store initialized", zap.String("folder", cfg.Folder))
	return store, nil
}

func (s *CloudinaryStore) Configured() bool {
	return s.uploader != nil
}

// Upload validates the image and sends it to Cloudinary, retrying transient failures.
func (s *CloudinaryStore) Upload(ctx context.Context, userID int64, filename string, file io.Reader) (*UploadResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}
	if err := s.Validate(filename, data); err != nil {
		return nil, err
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	params := uploader.UploadParams{
		Folder:         s.config.Folder,
		PublicID:       fmt.Sprintf("user_%d", userID),
		Overwrite:      ptrBool(true),
		UniqueFilename: ptrBool(false),
		ResourceType:   "image",
	}

	var result *uploader.UploadResult
	operation := func() error {
		var opErr error
		result, opErr = s.uploader.Upload(ctx, bytes.NewReader(data), params)
		if opErr == nil && result != nil && result.Error.Message != "" {
			opErr = errors.New(result.Error.Message)
		}
		return opErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.uploadTimeout / 2
	retries := s.config.MaxRetries
	if retries < 0 {
		retries = 0
	}

	err = backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx),
		func(err error, d time.Duration) {
			s.logger.Warn("Upload attempt failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		s.logger.Error("All upload attempts failed",
			zap.Int64("user_id", userID),
			zap.Int("max_retries", retries),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.logger.Info("Avatar uploaded successfully",
		zap.Int64("user_id", userID),
		zap.Int("size", len(data)),
		zap.Duration("duration", time.Since(startTime)),
		zap.String("public_id", result.PublicID))

	return &UploadResult{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Size:     result.Bytes,
	}, nil
}

// Validate checks size, sniffed content type and extension.
func (s *CloudinaryStore) Validate(filename string, data []byte) error {
	if int64(len(data)) > s.config.MaxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.config.MaxFileSize)
	}

	contentType := http.DetectContentType(data)
	if !slices.Contains(s.config.AllowedFormats, contentType) {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(imageExtensions, ext) {
		return fmt.Errorf("%w: %s is not a valid image extension", ErrInvalidExtension, ext)
	}
	return nil
}

func ptrBool(b bool) *bool {
	return &b
}
