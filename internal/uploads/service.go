package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	storage "github.com/nvelasquez/threadline-backend/pkg/storage/s3"
)

type presigner interface {
	PresignPut(ctx context.Context, key string) (*storage.PresignedUpload, error)
	PublicURL(key string) string
}

// Service hands out short-lived upload URLs for product assets.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID) (*PresignOutput, error)
}

// PresignOutput contains the signed URL plus the key the client must PUT to.
type PresignOutput struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type service struct {
	storage presigner
}

// NewService builds an upload service backed by the object store.
func NewService(storageClient presigner) (Service, error) {
	if storageClient == nil {
		return nil, fmt.Errorf("storage client required")
	}
	return &service{storage: storageClient}, nil
}

// PresignUpload signs a PUT URL under the user's key prefix. The random
// object id keeps concurrent uploads from colliding.
func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	key := fmt.Sprintf("%s/%s", userID, uuid.NewString())
	signed, err := s.storage.PresignPut(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "presign upload url")
	}

	return &PresignOutput{
		Key:       signed.Key,
		UploadURL: signed.URL,
		PublicURL: s.storage.PublicURL(signed.Key),
		ExpiresAt: signed.ExpiresAt,
	}, nil
}
