package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fesexport/backend/model"
)

// MongoStore keeps drafts in a MongoDB collection, one record per document
// number.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to uri and ensures the collection's indexes.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "documentNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userPrincipal", Value: 1}, {Key: "contactId", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	slog.Info("draft store initialized", "driver", "mongo", "database", database, "collection", collection)
	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

// ownerFilter matches a draft by number and owner. A blank contact id also
// matches records stored without one.
func ownerFilter(userPrincipal, documentNumber, contactID string) bson.M {
	f := bson.M{"documentNumber": documentNumber, "userPrincipal": userPrincipal}
	if contactID == "" {
		f["contactId"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		f["contactId"] = contactID
	}
	return f
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*model.Draft, error) {
	var d model.Draft
	err := s.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// Nested BSON arrays decode as primitive.A; Fields expects plain JSON values.
	if d.ExportData, err = normalizeFields(d.ExportData); err != nil {
		return nil, fmt.Errorf("normalize export data of %s: %w", d.DocumentNumber, err)
	}
	return &d, nil
}

func normalizeFields(f model.Fields) (model.Fields, error) {
	if f == nil {
		return model.Fields{}, nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := model.Fields{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error) {
	d, err := s.findOne(ctx, ownerFilter(userPrincipal, documentNumber, contactID))
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", documentNumber, err)
	}
	return d, nil
}

func (s *MongoStore) GetDocument(ctx context.Context, documentNumber string) (*model.Draft, error) {
	d, err := s.findOne(ctx, bson.M{"documentNumber": documentNumber})
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentNumber, err)
	}
	return d, nil
}

func (s *MongoStore) InsertDraft(ctx context.Context, d *model.Draft) error {
	if d.ExportData == nil {
		d.ExportData = model.Fields{}
	}
	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert %s: %w", d.DocumentNumber, err)
	}
	return nil
}

func (s *MongoStore) UpsertDraftData(ctx context.Context, userPrincipal, documentNumber, contactID string, update model.DraftUpdate) error {
	now := s.now()
	exportData := update.ExportData
	if exportData == nil {
		exportData = model.Fields{}
	}

	set := bson.M{"exportData": exportData, "updatedAt": now}
	if update.DocumentType != "" {
		set["documentType"] = update.DocumentType
	}
	if update.UserReference != nil {
		set["userReference"] = *update.UserReference
	}
	setOnInsert := bson.M{
		"status":         model.StatusDraft,
		"requestByAdmin": false,
		"createdAt":      now,
	}

	_, err := s.coll.UpdateOne(ctx,
		ownerFilter(userPrincipal, documentNumber, contactID),
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// The number exists under another owner.
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentNumber)
	}
	if err != nil {
		return fmt.Errorf("upsert %s: %w", documentNumber, err)
	}
	return nil
}

func (s *MongoStore) CompleteDraft(ctx context.Context, documentNumber, documentURI, submittedBy string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"documentNumber": documentNumber}, bson.M{"$set": bson.M{
		"status":      model.StatusComplete,
		"documentUri": documentURI,
		"submittedBy": submittedBy,
		"updatedAt":   s.now(),
	}})
	return checkMatched(res, err, documentNumber)
}

func (s *MongoStore) RecordFailedSubmission(ctx context.Context, documentNumber string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"documentNumber": documentNumber},
		bson.M{"$inc": bson.M{"numberOfFailedSubmissions": 1}})
	return checkMatched(res, err, documentNumber)
}

func checkMatched(res *mongo.UpdateResult, err error, documentNumber string) error {
	if err != nil {
		return fmt.Errorf("update %s: %w", documentNumber, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, documentNumber)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
