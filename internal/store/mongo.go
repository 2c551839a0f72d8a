package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/loomhq/loom/pkg/models"
)

// Collection names.
const (
	colDesigns       = "designs"
	colDeployments   = "deployments"
	colExecutionLogs = "execution_logs"
)

// MongoStore implements Store on MongoDB. Entities serialize through their
// bson tags; collection names and indexes are managed in ensureIndexes.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("[store.mongo] WARNING: ensure indexes failed: %v", err)
	}
	return s, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}
	indexes := []idx{
		{colDeployments, bson.D{{Key: "status", Value: 1}}, false},
		{colDeployments, bson.D{{Key: "design_id", Value: 1}}, false},
		{colExecutionLogs, bson.D{{Key: "deployment_id", Value: 1}}, false},
		{colExecutionLogs, bson.D{{Key: "status", Value: 1}}, false},
		{colExecutionLogs, bson.D{{Key: "started_at", Value: -1}}, false},
		{colExecutionLogs, bson.D{{Key: "execution_id", Value: 1}}, true},
	}
	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}

// findOne decodes a single document, mapping mongo.ErrNoDocuments to
// ErrNotFound.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// findMany decodes every matching document.
func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, cursor.Err()
}

// setFields applies a $set update by _id, mapping zero matches to
// ErrNotFound.
func setFields(ctx context.Context, col *mongo.Collection, id string, set bson.D) error {
	res, err := col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDesigns returns every stored design.
func (s *MongoStore) ListDesigns(ctx context.Context) ([]*models.Design, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findMany[models.Design](ctx, s.col(colDesigns), bson.D{}, opts)
}

// GetDesign returns the design with the given ID.
func (s *MongoStore) GetDesign(ctx context.Context, id string) (*models.Design, error) {
	return findOne[models.Design](ctx, s.col(colDesigns), bson.D{{Key: "_id", Value: id}})
}

// PutDesign inserts or replaces a design by ID.
func (s *MongoStore) PutDesign(ctx context.Context, design *models.Design) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.col(colDesigns).ReplaceOne(ctx, bson.D{{Key: "_id", Value: design.ID}}, design, opts)
	return err
}

// DeleteDesign removes a design by ID.
func (s *MongoStore) DeleteDesign(ctx context.Context, id string) error {
	res, err := s.col(colDesigns).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDeployments returns every stored deployment.
func (s *MongoStore) ListDeployments(ctx context.Context) ([]*models.Deployment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.Deployment](ctx, s.col(colDeployments), bson.D{}, opts)
}

// GetDeployment returns the deployment with the given ID.
func (s *MongoStore) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	return findOne[models.Deployment](ctx, s.col(colDeployments), bson.D{{Key: "_id", Value: id}})
}

// CreateDeployment inserts a new deployment.
func (s *MongoStore) CreateDeployment(ctx context.Context, dep *models.Deployment) error {
	_, err := s.col(colDeployments).InsertOne(ctx, dep)
	return err
}

// UpdateDeployment applies a partial update.
func (s *MongoStore) UpdateDeployment(ctx context.Context, id string, update DeploymentUpdate) error {
	var set bson.D
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *update.Status})
	}
	if update.Schedule != nil {
		set = append(set, bson.E{Key: "schedule", Value: *update.Schedule})
	}
	if update.InputData != nil {
		set = append(set, bson.E{Key: "input_data", Value: *update.InputData})
	}
	if update.ExecutionCount != nil {
		set = append(set, bson.E{Key: "execution_count", Value: *update.ExecutionCount})
	}
	if update.LastExecutionAt != nil {
		set = append(set, bson.E{Key: "last_execution_at", Value: *update.LastExecutionAt})
	}
	if len(set) == 0 {
		return nil
	}
	return setFields(ctx, s.col(colDeployments), id, set)
}

// CreateExecutionLog inserts a new execution log row.
func (s *MongoStore) CreateExecutionLog(ctx context.Context, log *models.ExecutionLog) error {
	_, err := s.col(colExecutionLogs).InsertOne(ctx, log)
	return err
}

// UpdateExecutionLog applies a partial update.
func (s *MongoStore) UpdateExecutionLog(ctx context.Context, id string, update ExecutionLogUpdate) error {
	var set bson.D
	if update.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *update.Status})
	}
	if update.CompletedAt != nil {
		set = append(set, bson.E{Key: "completed_at", Value: *update.CompletedAt})
	}
	if update.DurationMS != nil {
		set = append(set, bson.E{Key: "duration_ms", Value: *update.DurationMS})
	}
	if update.Result != nil {
		set = append(set, bson.E{Key: "result", Value: *update.Result})
	}
	if update.Error != nil {
		set = append(set, bson.E{Key: "error", Value: *update.Error})
	}
	if len(set) == 0 {
		return nil
	}
	return setFields(ctx, s.col(colExecutionLogs), id, set)
}

// ListExecutionLogs returns logs newest first, optionally filtered by
// deployment.
func (s *MongoStore) ListExecutionLogs(ctx context.Context, deploymentID string, limit int) ([]*models.ExecutionLog, error) {
	filter := bson.D{}
	if deploymentID != "" {
		filter = bson.D{{Key: "deployment_id", Value: deploymentID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findMany[models.ExecutionLog](ctx, s.col(colExecutionLogs), filter, opts)
}

// ListRunningExecutionLogs returns every log still in the running state.
func (s *MongoStore) ListRunningExecutionLogs(ctx context.Context) ([]*models.ExecutionLog, error) {
	filter := bson.D{{Key: "status", Value: models.ExecutionRunning}}
	return findMany[models.ExecutionLog](ctx, s.col(colExecutionLogs), filter)
}
