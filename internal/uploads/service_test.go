package uploads

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/oakmart/storefront-backend/pkg/errors"
)

type stubSigner struct {
	lastBucket      string
	lastObject      string
	lastContentType string
	err             error
}

func (s *stubSigner) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastBucket = bucket
	s.lastObject = object
	s.lastContentType = contentType
	if s.err != nil {
		return "", s.err
	}
	return "https://storage.example.com/" + object, nil
}

func newTestService(t *testing.T, signer *stubSigner) Service {
	t.Helper()
	svc, err := NewService(signer, "test-bucket", 15*time.Minute, 10)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestPresignAvatarUpload(t *testing.T) {
	signer := &stubSigner{}
	svc := newTestService(t, signer)
	userID := uuid.New()

	out, err := svc.PresignUpload(context.Background(), userID, false, PresignInput{
		Kind:      KindAvatar,
		FileName:  "My Photo.PNG",
		MimeType:  "image/png",
		SizeBytes: 1024,
	})
	if err != nil {
		t.Fatalf("PresignUpload: %v", err)
	}

	if !strings.HasPrefix(out.ObjectKey, "avatars/"+userID.String()+"/") {
		t.Fatalf("unexpected object key %s", out.ObjectKey)
	}
	if !strings.HasSuffix(out.ObjectKey, "-my-photo.png") {
		t.Fatalf("file name not sanitized: %s", out.ObjectKey)
	}
	if signer.lastBucket != "test-bucket" {
		t.Fatalf("unexpected bucket %s", signer.lastBucket)
	}
	if out.SignedPutURL == "" || out.ContentType != "image/png" {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestPresignProductUploadRequiresAdmin(t *testing.T) {
	svc := newTestService(t, &stubSigner{})

	input := PresignInput{
		Kind:      KindProduct,
		FileName:  "bench.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 2048,
	}

	_, err := svc.PresignUpload(context.Background(), uuid.New(), false, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	out, err := svc.PresignUpload(context.Background(), uuid.New(), true, input)
	if err != nil {
		t.Fatalf("admin PresignUpload: %v", err)
	}
	if !strings.HasPrefix(out.ObjectKey, "products/") {
		t.Fatalf("unexpected object key %s", out.ObjectKey)
	}
}

func TestPresignRejectsOversizeAndBadMime(t *testing.T) {
	svc := newTestService(t, &stubSigner{})
	userID := uuid.New()

	_, err := svc.PresignUpload(context.Background(), userID, false, PresignInput{
		Kind:      KindAvatar,
		FileName:  "big.png",
		MimeType:  "image/png",
		SizeBytes: 11 * 1024 * 1024,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for size, got %v", err)
	}

	_, err = svc.PresignUpload(context.Background(), userID, false, PresignInput{
		Kind:      KindAvatar,
		FileName:  "doc.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for mime, got %v", err)
	}
}
