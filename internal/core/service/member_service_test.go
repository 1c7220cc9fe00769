package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubpedal/members-system/internal/core/domain"
	"github.com/clubpedal/members-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubMemberRepo struct {
	active  map[string]*domain.Member
	deleted map[string]*domain.Member
	failOn  string // method name that should fail, e.g. "InsertActive"
}

func newStubMemberRepo() *stubMemberRepo {
	return &stubMemberRepo{
		active:  make(map[string]*domain.Member),
		deleted: make(map[string]*domain.Member),
	}
}

func (r *stubMemberRepo) fail(method string) error {
	if r.failOn == method {
		return errors.New("store unavailable")
	}
	return nil
}

func (r *stubMemberRepo) InsertActive(_ context.Context, m *domain.Member) error {
	if err := r.fail("InsertActive"); err != nil {
		return err
	}
	clone := *m
	r.active[m.ID] = &clone
	return nil
}

func (r *stubMemberRepo) ReplaceActive(_ context.Context, m *domain.Member) error {
	if err := r.fail("ReplaceActive"); err != nil {
		return err
	}
	if _, ok := r.active[m.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	clone := *m
	r.active[m.ID] = &clone
	return nil
}

func (r *stubMemberRepo) FindActive(_ context.Context, id string) (*domain.Member, error) {
	m, ok := r.active[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMemberRepo) FindDeleted(_ context.Context, id string) (*domain.Member, error) {
	m, ok := r.deleted[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMemberRepo) ListActive(_ context.Context) ([]*domain.Member, error) {
	out := make([]*domain.Member, 0, len(r.active))
	for _, m := range r.active {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubMemberRepo) ListDeleted(_ context.Context) ([]*domain.Member, error) {
	out := make([]*domain.Member, 0, len(r.deleted))
	for _, m := range r.deleted {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

// MoveToDeleted mirrors the real repository ordering: write the target
// partition first, then remove from the source.
func (r *stubMemberRepo) MoveToDeleted(_ context.Context, m *domain.Member) error {
	if err := r.fail("MoveToDeleted"); err != nil {
		return err
	}
	clone := *m
	r.deleted[m.ID] = &clone
	if _, ok := r.active[m.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.active, m.ID)
	return nil
}

func (r *stubMemberRepo) MoveToActive(_ context.Context, m *domain.Member) error {
	if err := r.fail("MoveToActive"); err != nil {
		return err
	}
	clone := *m
	r.active[m.ID] = &clone
	if _, ok := r.deleted[m.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.deleted, m.ID)
	return nil
}

type stubInvoiceRepo struct {
	counts   map[string]int64
	countErr error
}

func (r *stubInvoiceRepo) CountByClientID(_ context.Context, clientID string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.counts[clientID], nil
}

func (r *stubInvoiceRepo) ListByClientID(_ context.Context, _ string) ([]*domain.Invoice, error) {
	return nil, nil
}

type stubAuditService struct {
	entries   []ports.AppendAuditInput
	appendErr error
}

func (s *stubAuditService) Append(_ context.Context, in ports.AppendAuditInput) (*domain.AuditEntry, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.entries = append(s.entries, in)
	return &domain.AuditEntry{
		ID:       fmt.Sprintf("audit-%d", len(s.entries)),
		Date:     time.Now().UTC(),
		User:     in.User,
		Action:   in.Action,
		Details:  in.Details,
		RecordID: in.RecordID,
	}, nil
}

func (s *stubAuditService) Query(_ context.Context, _ ports.AuditQuery) ([]domain.AuditEntry, error) {
	return nil, nil
}

func (s *stubAuditService) forRecord(id string) []ports.AppendAuditInput {
	var out []ports.AppendAuditInput
	for _, e := range s.entries {
		if e.RecordID == id {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	repo     *stubMemberRepo
	invoices *stubInvoiceRepo
	audit    *stubAuditService
	svc      *MemberService
}

func newFixture() *fixture {
	repo := newStubMemberRepo()
	invoices := &stubInvoiceRepo{counts: make(map[string]int64)}
	audit := &stubAuditService{}
	return &fixture{
		repo:     repo,
		invoices: invoices,
		audit:    audit,
		svc:      NewMemberService(repo, invoices, audit, discardLogger),
	}
}

func minimalInput(actor string) ports.CreateMemberInput {
	return ports.CreateMemberInput{
		Actor:     actor,
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     "ana@example.com",
		City:      "Bogotá",
		BloodType: "O+",
		BikeBrand: "Specialized",
		Category:  "road",
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestMemberService_Create_Success(t *testing.T) {
	f := newFixture()

	member, err := f.svc.Create(context.Background(), minimalInput("carlos"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if member.ID == "" {
		t.Error("id must be assigned at creation")
	}
	if member.CreatedAt.IsZero() || member.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
	if _, ok := f.repo.active[member.ID]; !ok {
		t.Error("member must land in the active partition")
	}
	if _, ok := f.repo.deleted[member.ID]; ok {
		t.Error("new member must not be in the deleted partition")
	}

	entries := f.audit.forRecord(member.ID)
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(entries))
	}
	if entries[0].Action != domain.ActionCreated {
		t.Errorf("expected action %q, got %q", domain.ActionCreated, entries[0].Action)
	}
	if entries[0].User != "carlos" {
		t.Errorf("expected actor carlos, got %q", entries[0].User)
	}
}

func TestMemberService_Create_MissingName(t *testing.T) {
	f := newFixture()

	in := minimalInput("carlos")
	in.FirstName = ""
	_, err := f.svc.Create(context.Background(), in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.audit.entries) != 0 {
		t.Error("failed create must not produce an audit entry")
	}
	if len(f.repo.active) != 0 {
		t.Error("failed create must not store a member")
	}
}

func TestMemberService_Create_StoreErrorPropagated(t *testing.T) {
	f := newFixture()
	f.repo.failOn = "InsertActive"

	_, err := f.svc.Create(context.Background(), minimalInput("carlos"))
	if err == nil {
		t.Fatal("expected store error, got nil")
	}
	if len(f.audit.entries) != 0 {
		t.Error("failed create must not produce an audit entry")
	}
}

func TestMemberService_Create_AuditFailureSurfaced(t *testing.T) {
	f := newFixture()
	f.audit.appendErr = errors.New("ledger unavailable")

	_, err := f.svc.Create(context.Background(), minimalInput("carlos"))
	if !errors.Is(err, domain.ErrAuditInconsistency) {
		t.Fatalf("expected ErrAuditInconsistency, got %v", err)
	}
	// The mutation itself is not rolled back.
	if len(f.repo.active) != 1 {
		t.Error("member must remain stored despite the audit failure")
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func strptr(s string) *string { return &s }

func TestMemberService_Update_Success(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))

	updated, err := f.svc.Update(context.Background(), member.ID, ports.UpdateMemberInput{
		Actor: "carlos",
		City:  strptr("Medellín"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.City != "Medellín" {
		t.Errorf("patch not applied: city %q", updated.City)
	}
	if updated.FirstName != "Ana" {
		t.Errorf("untouched field changed: %q", updated.FirstName)
	}

	entries := f.audit.forRecord(member.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries after create+update, got %d", len(entries))
	}
	if entries[1].Action != domain.ActionUpdated {
		t.Errorf("expected action %q, got %q", domain.ActionUpdated, entries[1].Action)
	}
}

func TestMemberService_Update_DeletedRecordNotFound(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))
	_, err := f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "duplicate"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	auditCount := len(f.audit.entries)

	// Updates never resurrect: an id in the deleted partition is not found.
	_, err = f.svc.Update(context.Background(), member.ID, ports.UpdateMemberInput{
		Actor: "carlos",
		City:  strptr("Cali"),
	})
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if len(f.audit.entries) != auditCount {
		t.Error("failed update must not produce an audit entry")
	}
}

// ---------------------------------------------------------------------------
// Delete / Restore
// ---------------------------------------------------------------------------

func TestMemberService_Delete_RequiresReason(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))

	_, err := f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty reason, got %v", err)
	}
	if _, ok := f.repo.active[member.ID]; !ok {
		t.Error("member must stay active when delete is rejected")
	}
}

func TestMemberService_Delete_MovesToDeletedPartition(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))

	deleted, err := f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{
		Actor:  "carlos",
		Reason: "duplicate",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deleted.DeletionReason != "duplicate" {
		t.Errorf("expected reason stamped, got %q", deleted.DeletionReason)
	}
	if deleted.DeletionDate == nil {
		t.Error("deletion date must be stamped")
	}
	if _, ok := f.repo.active[member.ID]; ok {
		t.Error("deleted member must leave the active partition")
	}
	if _, ok := f.repo.deleted[member.ID]; !ok {
		t.Error("deleted member must land in the deleted partition")
	}

	entries := f.audit.forRecord(member.ID)
	if len(entries) != 2 || entries[1].Action != domain.ActionDeleted {
		t.Fatalf("expected a Deleted audit entry, got %+v", entries)
	}
}

func TestMemberService_Delete_NotActiveNotFound(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))
	_, _ = f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "dup"})
	auditCount := len(f.audit.entries)

	_, err := f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "dup"})
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound for second delete, got %v", err)
	}
	if len(f.audit.entries) != auditCount {
		t.Error("failed delete must not produce an audit entry")
	}
}

func TestMemberService_Delete_BlockedByDependents(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))
	f.invoices.counts[member.ID] = 3

	_, err := f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "left club"})
	if !errors.Is(err, domain.ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}
	if _, ok := f.repo.active[member.ID]; !ok {
		t.Error("member with dependents must stay active without force")
	}

	// Force acknowledges the dependents; never cascades.
	_, err = f.svc.Delete(context.Background(), member.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "left club", Force: true})
	if err != nil {
		t.Fatalf("forced delete failed: %v", err)
	}
	if f.invoices.counts[member.ID] != 3 {
		t.Error("delete must not cascade to invoices")
	}
}

func TestMemberService_Restore_RoundTripPreservesFields(t *testing.T) {
	f := newFixture()
	original, _ := f.svc.Create(context.Background(), minimalInput("carlos"))

	_, err := f.svc.Delete(context.Background(), original.ID, ports.DeleteMemberInput{Actor: "carlos", Reason: "duplicate"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	restored, err := f.svc.Restore(context.Background(), original.ID, "carlos")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if restored.DeletionReason != "" || restored.DeletionDate != nil {
		t.Error("restore must strip the deletion stamps")
	}
	if restored.FirstName != original.FirstName ||
		restored.LastName != original.LastName ||
		restored.Email != original.Email ||
		restored.City != original.City ||
		restored.BloodType != original.BloodType ||
		restored.Bike != original.Bike ||
		restored.Category != original.Category {
		t.Errorf("delete+restore must preserve fields: got %+v, want %+v", restored, original)
	}
	if _, ok := f.repo.active[original.ID]; !ok {
		t.Error("restored member must be active again")
	}
	if _, ok := f.repo.deleted[original.ID]; ok {
		t.Error("restored member must leave the deleted partition")
	}

	// Scenario: create + delete + restore = exactly 3 entries for this id.
	entries := f.audit.forRecord(original.ID)
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	if entries[2].Action != domain.ActionRestored {
		t.Errorf("expected final action %q, got %q", domain.ActionRestored, entries[2].Action)
	}
}

func TestMemberService_Restore_NotDeletedNotFound(t *testing.T) {
	f := newFixture()
	member, _ := f.svc.Create(context.Background(), minimalInput("carlos"))

	_, err := f.svc.Restore(context.Background(), member.ID, "carlos")
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("restore of an active member must fail not-found, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Partition disjointness under random mutation sequences
// ---------------------------------------------------------------------------

func TestMemberService_PartitionsStayDisjoint(t *testing.T) {
	f := newFixture()
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	var ids []string
	mutations := 0

	checkInvariant := func() {
		for _, id := range ids {
			_, inActive := f.repo.active[id]
			_, inDeleted := f.repo.deleted[id]
			if inActive && inDeleted {
				t.Fatalf("id %s present in both partitions", id)
			}
			if !inActive && !inDeleted {
				t.Fatalf("id %s dropped from both partitions", id)
			}
		}
	}

	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			m, err := f.svc.Create(ctx, minimalInput("bot"))
			if err != nil {
				t.Fatalf("create failed: %v", err)
			}
			ids = append(ids, m.ID)
			mutations++
		case 1:
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))]
			if _, err := f.svc.Delete(ctx, id, ports.DeleteMemberInput{Actor: "bot", Reason: "cleanup"}); err == nil {
				mutations++
			} else if !errors.Is(err, domain.ErrMemberNotFound) {
				t.Fatalf("delete failed unexpectedly: %v", err)
			}
		case 2:
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))]
			if _, err := f.svc.Restore(ctx, id, "bot"); err == nil {
				mutations++
			} else if !errors.Is(err, domain.ErrMemberNotFound) {
				t.Fatalf("restore failed unexpectedly: %v", err)
			}
		}
		checkInvariant()
	}

	// Exactly one audit entry per successful mutation.
	if len(f.audit.entries) != mutations {
		t.Errorf("audit completeness violated: %d mutations, %d entries", mutations, len(f.audit.entries))
	}
}
