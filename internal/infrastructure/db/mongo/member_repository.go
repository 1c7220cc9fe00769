package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clubpedal/members-system/internal/core/domain"
)

const (
	collectionMembers        = "members"
	collectionDeletedMembers = "deleted_members"
)

// MemberRepository persists the two member partitions as separate
// collections. A soft delete or restore is a move between them; both moves
// write the record into the target collection before removing it from the
// source, so a concurrent reader can never observe the id in neither.
type MemberRepository struct {
	active  *mongo.Collection
	deleted *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{
		active:  db.Collection(collectionMembers),
		deleted: db.Collection(collectionDeletedMembers),
	}
}

func (r *MemberRepository) InsertActive(ctx context.Context, m *domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.active.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *MemberRepository) ReplaceActive(ctx context.Context, m *domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.active.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("replace member: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) FindActive(ctx context.Context, id string) (*domain.Member, error) {
	return findOne(ctx, r.active, id)
}

func (r *MemberRepository) FindDeleted(ctx context.Context, id string) (*domain.Member, error) {
	return findOne(ctx, r.deleted, id)
}

func (r *MemberRepository) ListActive(ctx context.Context) ([]*domain.Member, error) {
	return listAll(ctx, r.active, bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
}

func (r *MemberRepository) ListDeleted(ctx context.Context) ([]*domain.Member, error) {
	return listAll(ctx, r.deleted, bson.D{{Key: "deletion_date", Value: -1}})
}

// MoveToDeleted moves m from the active to the deleted partition.
// Order matters: write the deleted copy first, then remove the active one.
// A failure in between leaves the record briefly visible in both partitions,
// which the service layer reports; it is never visible in neither.
func (r *MemberRepository) MoveToDeleted(ctx context.Context, m *domain.Member) error {
	return r.move(ctx, r.active, r.deleted, m)
}

// MoveToActive moves m from the deleted partition back to the active one,
// with the same write-then-remove ordering.
func (r *MemberRepository) MoveToActive(ctx context.Context, m *domain.Member) error {
	return r.move(ctx, r.deleted, r.active, m)
}

func (r *MemberRepository) move(ctx context.Context, from, to *mongo.Collection, m *domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Upsert absorbs a retry after a partial move (copy written, source not
	// yet removed).
	if _, err := to.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("move member %s: write target partition: %w", m.ID, err)
	}

	res, err := from.DeleteOne(ctx, bson.M{"_id": m.ID})
	if err != nil {
		return fmt.Errorf("move member %s: remove source partition: %w", m.ID, err)
	}
	if res.DeletedCount == 0 {
		// A concurrent move won the race; the copy we wrote is identical.
		return domain.ErrMemberNotFound
	}
	return nil
}

func findOne(ctx context.Context, col *mongo.Collection, id string) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m domain.Member
	err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return &m, nil
}

func listAll(ctx context.Context, col *mongo.Collection, sort bson.D) ([]*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer cur.Close(ctx)

	members := make([]*domain.Member, 0)
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return members, nil
}

// EnsureIndexes creates the indexes both partitions rely on.
func (r *MemberRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.active.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = r.deleted.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "deletion_date", Value: -1}}},
	})
	return err
}
