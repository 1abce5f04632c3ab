package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound means no override is stored for the key; callers fall back
// to DefaultFlags.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository persists flag overrides.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)
	// SetFlags upserts every flag or none of them.
	SetFlags(ctx context.Context, flags []*Flag) error
	// ResetFlag drops the stored override. It returns ErrFlagNotFound when
	// there was none.
	ResetFlag(ctx context.Context, key string) error
}
