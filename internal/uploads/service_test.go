package uploads

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	storage "github.com/nvelasquez/threadline-backend/pkg/storage/s3"
)

type stubPresigner struct {
	lastKey string
}

func (s *stubPresigner) PresignPut(ctx context.Context, key string) (*storage.PresignedUpload, error) {
	s.lastKey = key
	return &storage.PresignedUpload{
		URL:       "https://bucket.r2.test/" + key + "?signed",
		Key:       key,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}

func (s *stubPresigner) PublicURL(key string) string {
	return "https://cdn.threadline.test/" + key
}

func TestPresignUploadKeyUnderUserPrefix(t *testing.T) {
	presigner := &stubPresigner{}
	svc, err := NewService(presigner)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	userID := uuid.New()
	out, err := svc.PresignUpload(context.Background(), userID)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	if !strings.HasPrefix(out.Key, userID.String()+"/") {
		t.Fatalf("expected key under user prefix, got %s", out.Key)
	}
	suffix := strings.TrimPrefix(out.Key, userID.String()+"/")
	if _, err := uuid.Parse(suffix); err != nil {
		t.Fatalf("expected random object id, got %s", suffix)
	}
	if out.UploadURL == "" || !strings.Contains(out.UploadURL, out.Key) {
		t.Fatalf("expected signed url for the key")
	}
	if out.PublicURL != "https://cdn.threadline.test/"+out.Key {
		t.Fatalf("unexpected public url %s", out.PublicURL)
	}
}

func TestPresignUploadKeysAreUnique(t *testing.T) {
	presigner := &stubPresigner{}
	svc, err := NewService(presigner)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	userID := uuid.New()
	first, err := svc.PresignUpload(context.Background(), userID)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	second, err := svc.PresignUpload(context.Background(), userID)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("concurrent uploads must not collide on keys")
	}
}

func TestPresignUploadMissingUser(t *testing.T) {
	svc, err := NewService(&stubPresigner{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err = svc.PresignUpload(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}
