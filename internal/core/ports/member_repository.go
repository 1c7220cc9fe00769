package ports

import (
	"context"

	"github.com/clubpedal/members-system/internal/core/domain"
)

// MemberRepository defines persistence operations over the two member
// partitions (active and deleted).
//
// MoveToDeleted and MoveToActive are single logical moves: implementations
// must write the record into the target partition before removing it from the
// source partition, so a concurrent reader never observes the record absent
// from both.
type MemberRepository interface {
	InsertActive(ctx context.Context, m *domain.Member) error
	ReplaceActive(ctx context.Context, m *domain.Member) error
	// FindActive retrieves a member from the active partition.
	// Returns domain.ErrMemberNotFound when the id is not active — including
	// when it currently sits in the deleted partition.
	FindActive(ctx context.Context, id string) (*domain.Member, error)
	FindDeleted(ctx context.Context, id string) (*domain.Member, error)
	ListActive(ctx context.Context) ([]*domain.Member, error)
	ListDeleted(ctx context.Context) ([]*domain.Member, error)
	// MoveToDeleted moves m (already stamped with deletion reason and date)
	// from the active partition into the deleted partition.
	MoveToDeleted(ctx context.Context, m *domain.Member) error
	// MoveToActive moves m (deletion stamps already stripped) from the
	// deleted partition back into the active partition.
	MoveToActive(ctx context.Context, m *domain.Member) error
}

// InvoiceRepository exposes the dependent-invoice check consulted before a
// member delete. Referential integrity is not enforced by the store.
type InvoiceRepository interface {
	CountByClientID(ctx context.Context, clientID string) (int64, error)
	ListByClientID(ctx context.Context, clientID string) ([]*domain.Invoice, error)
}
