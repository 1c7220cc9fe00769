package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clubpedal/members-system/internal/core/domain"
	"github.com/clubpedal/members-system/internal/core/ports"
)

const (
	// defaultAuditPageSize bounds unfiltered audit listings.
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditService implements the append-only mutation ledger. It is the single
// clock source for audit timestamps: dates are assigned here, never taken
// from callers, so the descending-date ordering of queries stays coherent.
type AuditService struct {
	repo   ports.AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuditService(repo ports.AuditRepository, logger zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger, now: time.Now}
}

// Append assigns id and date and persists the entry. A persistence failure
// is returned to the caller: losing an audit entry silently would break the
// ledger's completeness guarantee.
func (s *AuditService) Append(ctx context.Context, input ports.AppendAuditInput) (*domain.AuditEntry, error) {
	if input.Action == "" {
		return nil, fmt.Errorf("%w: audit action is required", domain.ErrValidation)
	}

	entry := &domain.AuditEntry{
		ID:       uuid.NewString(),
		Date:     s.now().UTC(),
		User:     input.User,
		Action:   input.Action,
		Details:  input.Details,
		RecordID: input.RecordID,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", string(input.Action)).Msg("failed to append audit entry")
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return entry, nil
}

// Query returns audit entries ordered by date descending. A RecordID filter
// wins over a User filter when both are set; the unfiltered listing is
// paginated with a bounded default page size.
func (s *AuditService) Query(ctx context.Context, q ports.AuditQuery) ([]domain.AuditEntry, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", domain.ErrValidation)
	}

	switch {
	case q.RecordID != "":
		return s.repo.ByRecordID(ctx, q.RecordID)
	case q.User != "":
		return s.repo.ByActor(ctx, q.User)
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	return s.repo.All(ctx, limit, q.Offset)
}
