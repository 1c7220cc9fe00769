package ports

import (
	"context"

	"github.com/clubpedal/members-system/internal/core/domain"
)

// AppendAuditInput is an audit entry before id and date assignment.
type AppendAuditInput struct {
	User     string
	Action   domain.AuditAction
	Details  string
	RecordID string
}

// AuditQuery selects audit entries. RecordID and User are mutually optional
// filters; Limit and Offset only apply to the unfiltered listing and must be
// non-negative.
type AuditQuery struct {
	RecordID string
	User     string
	Limit    int
	Offset   int
}

// AuditService is the append-only mutation ledger. Append assigns id and
// date from a single clock source; a persistence failure is always surfaced
// to the caller, never swallowed.
type AuditService interface {
	Append(ctx context.Context, input AppendAuditInput) (*domain.AuditEntry, error)
	Query(ctx context.Context, q AuditQuery) ([]domain.AuditEntry, error)
}
