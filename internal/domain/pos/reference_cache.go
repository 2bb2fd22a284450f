package pos

import (
	"context"

	"github.com/google/uuid"
)

// ReferenceKind names a cached POS reference list
type ReferenceKind string

const (
	ReferenceAccounts   ReferenceKind = "accounts"
	ReferenceCategories ReferenceKind = "categories"
)

// ReferenceCache holds POS reference data (finance accounts, categories) per
// connected POS account. Settlement math never reads from it.
type ReferenceCache interface {
	// Get decodes the cached value into dest and reports whether it was present
	Get(ctx context.Context, posAccountID uuid.UUID, kind ReferenceKind, dest any) (bool, error)
	Set(ctx context.Context, posAccountID uuid.UUID, kind ReferenceKind, value any) error
	Invalidate(ctx context.Context, posAccountID uuid.UUID) error
}
