package uploads

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

// Kind distinguishes where an uploaded object lands and who may request it.
type Kind string

const (
	KindAvatar  Kind = "avatar"
	KindProduct Kind = "product"
)

var allowedMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

// Service issues short-lived presigned PUT URLs for image uploads.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, isAdmin bool, input PresignInput) (*PresignOutput, error)
}

type service struct {
	signer    urlSigner
	bucket    string
	uploadTTL time.Duration
	maxBytes  int64
}

// NewService constructs an uploads service over the provided signer.
func NewService(signer urlSigner, bucket string, uploadTTL time.Duration, maxUploadMB int) (Service, error) {
	if signer == nil {
		return nil, fmt.Errorf("url signer is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if uploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		signer:    signer,
		bucket:    bucket,
		uploadTTL: uploadTTL,
		maxBytes:  int64(maxUploadMB) * 1024 * 1024,
	}, nil
}

// PresignInput models an upload URL request.
type PresignInput struct {
	Kind      Kind   `json:"kind" validate:"required,oneof=avatar product"`
	FileName  string `json:"file_name" validate:"required,max=255"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// PresignOutput carries the signed PUT URL and the object key the client
// must upload to.
type PresignOutput struct {
	ObjectKey    string    `json:"object_key"`
	SignedPutURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, isAdmin bool, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	switch input.Kind {
	case KindAvatar:
	case KindProduct:
		if !isAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product uploads require admin access")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown upload kind")
	}

	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if !isAllowedMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed").
			WithDetails(map[string]any{"allowed": allowedMimeTypes})
	}

	objectKey := buildObjectKey(input.Kind, userID, input.FileName)

	signedURL, err := s.signer.SignedURL(s.bucket, objectKey, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		ObjectKey:    objectKey,
		SignedPutURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    time.Now().Add(s.uploadTTL),
	}, nil
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(kind Kind, userID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	id := uuid.New()
	if cleanName == "" {
		cleanName = id.String()
	}
	switch kind {
	case KindAvatar:
		return fmt.Sprintf("avatars/%s/%s-%s", userID, id, cleanName)
	default:
		return fmt.Sprintf("products/%s-%s", id, cleanName)
	}
}

// sanitizeFileName keeps letters, digits, dots, dashes and underscores so the
// object key stays URL-safe.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), ".-_")
}
