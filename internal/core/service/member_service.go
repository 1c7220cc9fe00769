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

// MemberService implements the entity lifecycle manager: every mutation on
// the member partitions produces exactly one audit entry, and soft delete and
// restore are modeled as moves between the active and deleted partitions,
// never as destructive deletion.
type MemberService struct {
	members  ports.MemberRepository
	invoices ports.InvoiceRepository
	audit    ports.AuditService
	logger   zerolog.Logger
}

func NewMemberService(
	members ports.MemberRepository,
	invoices ports.InvoiceRepository,
	audit ports.AuditService,
	logger zerolog.Logger,
) *MemberService {
	return &MemberService{members: members, invoices: invoices, audit: audit, logger: logger}
}

// Create validates the input, assigns an id, and inserts the member into the
// active partition. Exactly one "Created" audit entry is appended; if the
// insert succeeded but the audit append failed, the error wraps
// domain.ErrAuditInconsistency so operators can reconcile manually — the
// member itself is not rolled back.
func (s *MemberService) Create(ctx context.Context, input ports.CreateMemberInput) (*domain.Member, error) {
	if input.FirstName == "" {
		return nil, fmt.Errorf("%w: first_name is required", domain.ErrValidation)
	}
	if input.LastName == "" {
		return nil, fmt.Errorf("%w: last_name is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	member := &domain.Member{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		BirthDate: input.BirthDate,
		Address:   input.Address,
		City:      input.City,
		BloodType: input.BloodType,
		Emergency: domain.EmergencyContact{
			Name:  input.EmergencyName,
			Phone: input.EmergencyPhone,
		},
		Bike: domain.Bike{
			Brand:  input.BikeBrand,
			Model:  input.BikeModel,
			Serial: input.BikeSerial,
		},
		JerseySize: input.JerseySize,
		Category:   input.Category,
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.members.InsertActive(ctx, member); err != nil {
		s.logger.Error().Err(err).Msg("failed to create member")
		return nil, err
	}

	s.logger.Info().Str("member_id", member.ID).Str("actor", input.Actor).Msg("member created")

	if err := s.appendAudit(ctx, input.Actor, domain.ActionCreated, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Update patches a member currently in the active partition. Updating an id
// that sits in the deleted partition fails with domain.ErrMemberNotFound —
// updates never resurrect.
func (s *MemberService) Update(ctx context.Context, id string, input ports.UpdateMemberInput) (*domain.Member, error) {
	member, err := s.members.FindActive(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(member, input)
	if member.FirstName == "" {
		return nil, fmt.Errorf("%w: first_name cannot be empty", domain.ErrValidation)
	}
	if member.LastName == "" {
		return nil, fmt.Errorf("%w: last_name cannot be empty", domain.ErrValidation)
	}
	member.UpdatedAt = time.Now().UTC()

	if err := s.members.ReplaceActive(ctx, member); err != nil {
		s.logger.Error().Err(err).Str("member_id", id).Msg("failed to update member")
		return nil, err
	}

	s.logger.Info().Str("member_id", id).Str("actor", input.Actor).Msg("member updated")

	if err := s.appendAudit(ctx, input.Actor, domain.ActionUpdated, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete soft-deletes an active member: the record is stamped with the
// deletion reason and date and moved into the deleted partition. The move
// writes the deleted copy before removing the active one, so the record is
// never observable in neither partition. Members with dependent invoices
// require Force (explicit operator confirmation).
func (s *MemberService) Delete(ctx context.Context, id string, input ports.DeleteMemberInput) (*domain.Member, error) {
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: deletion reason is required", domain.ErrValidation)
	}

	member, err := s.members.FindActive(ctx, id)
	if err != nil {
		return nil, err
	}

	if !input.Force {
		count, err := s.invoices.CountByClientID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("delete member: dependent check: %w", err)
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: %d invoices reference member %s", domain.ErrHasDependents, count, id)
		}
	}

	now := time.Now().UTC()
	member.DeletionReason = input.Reason
	member.DeletionDate = &now

	if err := s.members.MoveToDeleted(ctx, member); err != nil {
		s.logger.Error().Err(err).Str("member_id", id).Msg("failed to delete member")
		return nil, err
	}

	s.logger.Info().Str("member_id", id).Str("reason", input.Reason).Str("actor", input.Actor).Msg("member soft-deleted")

	if err := s.appendAudit(ctx, input.Actor, domain.ActionDeleted, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Restore is the inverse of Delete: the member must currently be in the
// deleted partition; its deletion stamps are stripped and it moves back to
// the active partition, again never observable in neither.
func (s *MemberService) Restore(ctx context.Context, id string, actor string) (*domain.Member, error) {
	member, err := s.members.FindDeleted(ctx, id)
	if err != nil {
		return nil, err
	}

	member.DeletionReason = ""
	member.DeletionDate = nil
	member.UpdatedAt = time.Now().UTC()

	if err := s.members.MoveToActive(ctx, member); err != nil {
		s.logger.Error().Err(err).Str("member_id", id).Msg("failed to restore member")
		return nil, err
	}

	s.logger.Info().Str("member_id", id).Str("actor", actor).Msg("member restored")

	if err := s.appendAudit(ctx, actor, domain.ActionRestored, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Get retrieves a member from the active partition.
func (s *MemberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	return s.members.FindActive(ctx, id)
}

// ListActive returns the active partition. Read-only, no side effects.
func (s *MemberService) ListActive(ctx context.Context) ([]*domain.Member, error) {
	return s.members.ListActive(ctx)
}

// ListDeleted returns the deleted partition. Read-only, no side effects.
func (s *MemberService) ListDeleted(ctx context.Context) ([]*domain.Member, error) {
	return s.members.ListDeleted(ctx)
}

// HasDependents reports whether invoices still reference the member. Callers
// may consult it before Delete; the manager never cascades on its own.
func (s *MemberService) HasDependents(ctx context.Context, id string) (bool, int64, error) {
	count, err := s.invoices.CountByClientID(ctx, id)
	if err != nil {
		return false, 0, err
	}
	return count > 0, count, nil
}

// ListInvoices returns the invoices referencing the member, newest first.
// Works for both partitions: the invoices themselves never move.
func (s *MemberService) ListInvoices(ctx context.Context, id string) ([]*domain.Invoice, error) {
	return s.invoices.ListByClientID(ctx, id)
}

// appendAudit records exactly one ledger entry for a completed mutation.
// The mutation is already durable at this point: an append failure is
// surfaced as domain.ErrAuditInconsistency rather than rolled back.
func (s *MemberService) appendAudit(ctx context.Context, actor string, action domain.AuditAction, m *domain.Member) error {
	_, err := s.audit.Append(ctx, ports.AppendAuditInput{
		User:     actor,
		Action:   action,
		Details:  fmt.Sprintf("%s member %s", action, m.FullName()),
		RecordID: m.ID,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("member_id", m.ID).
			Str("action", string(action)).
			Msg("audit append failed after successful mutation")
		return fmt.Errorf("%w: %s %s: %v", domain.ErrAuditInconsistency, action, m.ID, err)
	}
	return nil
}

func applyPatch(m *domain.Member, in ports.UpdateMemberInput) {
	if in.FirstName != nil {
		m.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		m.LastName = *in.LastName
	}
	if in.Email != nil {
		m.Email = *in.Email
	}
	if in.Phone != nil {
		m.Phone = *in.Phone
	}
	if in.BirthDate != nil {
		m.BirthDate = in.BirthDate
	}
	if in.Address != nil {
		m.Address = *in.Address
	}
	if in.City != nil {
		m.City = *in.City
	}
	if in.BloodType != nil {
		m.BloodType = *in.BloodType
	}
	if in.EmergencyName != nil {
		m.Emergency.Name = *in.EmergencyName
	}
	if in.EmergencyPhone != nil {
		m.Emergency.Phone = *in.EmergencyPhone
	}
	if in.BikeBrand != nil {
		m.Bike.Brand = *in.BikeBrand
	}
	if in.BikeModel != nil {
		m.Bike.Model = *in.BikeModel
	}
	if in.BikeSerial != nil {
		m.Bike.Serial = *in.BikeSerial
	}
	if in.JerseySize != nil {
		m.JerseySize = *in.JerseySize
	}
	if in.Category != nil {
		m.Category = *in.Category
	}
	if in.Notes != nil {
		m.Notes = *in.Notes
	}
}
