package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clubpedal/members-system/internal/core/domain"
)

const collectionAuditLog = "audit_log"

// AuditRepository implements the append-only ledger on the audit_log
// collection. Nothing here updates or deletes documents.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditLog)}
}

// auditDoc carries an ord field alongside the entry: an ObjectID generated at
// insert time, used to break date ties by insertion order.
type auditDoc struct {
	ID       string             `bson:"_id"`
	Ord      primitive.ObjectID `bson:"ord"`
	Date     time.Time          `bson:"date"`
	User     string             `bson:"user"`
	Action   string             `bson:"action"`
	Details  string             `bson:"details"`
	RecordID string             `bson:"record_id,omitempty"`
}

func (d auditDoc) toDomain() domain.AuditEntry {
	return domain.AuditEntry{
		ID:       d.ID,
		Date:     d.Date,
		User:     d.User,
		Action:   domain.AuditAction(d.Action),
		Details:  d.Details,
		RecordID: d.RecordID,
	}
}

func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := auditDoc{
		ID:       e.ID,
		Ord:      primitive.NewObjectID(),
		Date:     e.Date.UTC(),
		User:     e.User,
		Action:   string(e.Action),
		Details:  e.Details,
		RecordID: e.RecordID,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) ByRecordID(ctx context.Context, recordID string) ([]domain.AuditEntry, error) {
	return r.find(ctx, bson.M{"record_id": recordID}, 0, 0)
}

func (r *AuditRepository) ByActor(ctx context.Context, user string) ([]domain.AuditEntry, error) {
	return r.find(ctx, bson.M{"user": user}, 0, 0)
}

func (r *AuditRepository) All(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

// find returns entries newest first; date ties fall back to insertion order.
func (r *AuditRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "ord", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit entries: %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toDomain())
	}
	return entries, nil
}

// EnsureIndexes creates the indexes the three query paths rely on.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "ord", Value: -1}}},
		{Keys: bson.D{{Key: "record_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}}},
	})
	return err
}
