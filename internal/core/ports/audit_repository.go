package ports

import (
	"context"

	"github.com/clubpedal/members-system/internal/core/domain"
)

// AuditRepository handles persistence of the append-only audit ledger.
// Entries are never updated or deleted through this interface; all query
// methods return entries ordered by date descending, ties broken by
// insertion order.
type AuditRepository interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
	ByRecordID(ctx context.Context, recordID string) ([]domain.AuditEntry, error)
	ByActor(ctx context.Context, user string) ([]domain.AuditEntry, error)
	All(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
}
