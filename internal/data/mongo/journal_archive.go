package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// JournalCollectionName is the name of the journal archive collection in MongoDB
	JournalCollectionName = "journal_entries"
)

// JournalArchive implements ledger.Archive for MongoDB
type JournalArchive struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalArchive creates a new MongoDB journal archive
func NewJournalArchive(logger *slog.Logger, db *mongo.Database) ledger.Archive {
	return &JournalArchive{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique entry_id index that makes Archive idempotent
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(JournalCollectionName)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entry_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reference_type", Value: 1}, {Key: "reference_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create journal archive indexes: %w", err)
	}
	return nil
}

// Archive stores the entry. A duplicate entry_id means it was archived before.
func (r *JournalArchive) Archive(ctx context.Context, entry *ledger.JournalEntry) error {
	collection := r.db.Collection(JournalCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Journal entry already archived", "entry_id", entry.ID.String())
			return nil
		}
		r.logger.Error("Failed to archive journal entry",
			"entry_id", entry.ID.String(),
			"error", err)
		return fmt.Errorf("failed to archive journal entry: %w", err)
	}

	return nil
}

// GetByEntryID retrieves an archived entry.
// Returns ErrEntryNotFound if it has not been archived yet.
func (r *JournalArchive) GetByEntryID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	collection := r.db.Collection(JournalCollectionName)

	var entry ledger.JournalEntry
	err := collection.FindOne(ctx, bson.M{"entry_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get archived journal entry",
			"entry_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived journal entry: %w", err)
	}

	return &entry, nil
}

// ListByReference returns every archived entry pointing at the business object, oldest first
func (r *JournalArchive) ListByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID) ([]*ledger.JournalEntry, error) {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"reference_type": refType, "reference_id": refID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list archived journal entries",
			"reference_type", string(refType),
			"reference_id", refID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list archived journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*ledger.JournalEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archived journal entries",
			"reference_id", refID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived journal entries: %w", err)
	}

	return entries, nil
}
