package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clubpedal/members-system/internal/core/domain"
)

const collectionInvoices = "invoices"

// InvoiceRepository exposes read-only access to invoices for the
// dependent-record check. Invoice writes belong to a different surface.
type InvoiceRepository struct {
	col *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	return &InvoiceRepository{col: db.Collection(collectionInvoices)}
}

func (r *InvoiceRepository) CountByClientID(ctx context.Context, clientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

func (r *InvoiceRepository) ListByClientID(ctx context.Context, clientID string) ([]*domain.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"client_id": clientID},
		options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer cur.Close(ctx)

	invoices := make([]*domain.Invoice, 0)
	if err := cur.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	return invoices, nil
}
