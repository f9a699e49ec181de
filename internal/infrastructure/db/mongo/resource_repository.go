package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/intersect-health/fhir-api/internal/core/domain"
	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// ResourceRepository stores FHIR documents in one collection per type, keyed
// by the resource's own "id" field. Mongo's _id is never exposed.
type ResourceRepository struct {
	db *mongo.Database
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{db: db}
}

var hideObjectID = bson.M{"_id": 0}

func (r *ResourceRepository) Insert(ctx context.Context, resourceType string, res domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.Collection(resourceType).InsertOne(ctx, bson.M(res)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrResourceExists
		}
		return fmt.Errorf("insert %s: %w", resourceType, err)
	}
	return nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, resourceType, id string) (domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bson.M
	opts := options.FindOne().SetProjection(hideObjectID)
	if err := r.db.Collection(resourceType).FindOne(ctx, bson.M{"id": id}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("find %s: %w", resourceType, err)
	}
	return domain.Resource(doc), nil
}

func (r *ResourceRepository) List(ctx context.Context, resourceType string, filter ports.ListFilter) ([]domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := pageOptions(filter.Offset, filter.Count).SetProjection(hideObjectID)
	cur, err := r.db.Collection(resourceType).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resourceType, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resourceType, err)
	}
	out := make([]domain.Resource, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Resource(d))
	}
	return out, nil
}

func (r *ResourceRepository) Replace(ctx context.Context, resourceType, id string, res domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.db.Collection(resourceType).ReplaceOne(ctx, bson.M{"id": id}, bson.M(res))
	if err != nil {
		return fmt.Errorf("replace %s: %w", resourceType, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, resourceType, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.db.Collection(resourceType).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", resourceType, err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

// EnsureIndexes creates a unique index on "id" for every supported type.
func (r *ResourceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, t := range domain.ResourceTypes {
		_, err := r.db.Collection(t).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", t, err)
		}
	}
	return nil
}
