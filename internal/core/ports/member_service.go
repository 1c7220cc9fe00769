package ports

import (
	"context"
	"time"

	"github.com/clubpedal/members-system/internal/core/domain"
)

// CreateMemberInput carries all data needed to register a new member.
// Actor is the display name of the authenticated user performing the
// operation; it is stamped into the audit entry.
type CreateMemberInput struct {
	Actor string

	FirstName string
	LastName  string
	Email     string
	Phone     string
	BirthDate *time.Time
	Address   string
	City      string
	BloodType string

	EmergencyName  string
	EmergencyPhone string

	BikeBrand  string
	BikeModel  string
	BikeSerial string

	JerseySize string
	Category   string
	Notes      string
}

// UpdateMemberInput is a field patch: nil pointers leave the stored value
// untouched, non-nil pointers replace it.
type UpdateMemberInput struct {
	Actor string

	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	BirthDate *time.Time
	Address   *string
	City      *string
	BloodType *string

	EmergencyName  *string
	EmergencyPhone *string

	BikeBrand  *string
	BikeModel  *string
	BikeSerial *string

	JerseySize *string
	Category   *string
	Notes      *string
}

// DeleteMemberInput carries the parameters for a soft delete.
// Force acknowledges dependent invoices: without it, deleting a member that
// still has invoices fails with domain.ErrHasDependents.
type DeleteMemberInput struct {
	Actor  string
	Reason string
	Force  bool
}

// MemberService is the entity lifecycle manager: the sole writer of the
// active/deleted partitions and the sole creator of lifecycle audit entries.
type MemberService interface {
	Create(ctx context.Context, input CreateMemberInput) (*domain.Member, error)
	Update(ctx context.Context, id string, input UpdateMemberInput) (*domain.Member, error)
	Delete(ctx context.Context, id string, input DeleteMemberInput) (*domain.Member, error)
	Restore(ctx context.Context, id string, actor string) (*domain.Member, error)
	Get(ctx context.Context, id string) (*domain.Member, error)
	ListActive(ctx context.Context) ([]*domain.Member, error)
	ListDeleted(ctx context.Context) ([]*domain.Member, error)
	HasDependents(ctx context.Context, id string) (bool, int64, error)
	ListInvoices(ctx context.Context, id string) ([]*domain.Invoice, error)
}
