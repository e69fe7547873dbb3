package repositories

import (
	"context"
	"errors"

	"github.com/SantiagoArteche/ober-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	return &MongoTaskRepository{collection: db.Collection("tasks")}
}

// queryFilter builds the store-side part of the listing filter. The endDate
// filter stays out: the task service applies it after the page is fetched.
func queryFilter(filters models.TaskFilters) bson.M {
	filter := bson.M{}
	if filters.Status != "" {
		filter["status"] = filters.Status
	}
	if filters.UserAssigned != nil {
		filter["assignedTo"] = *filters.UserAssigned
	}
	return filter
}

func (r *MongoTaskRepository) Find(ctx context.Context, filters models.TaskFilters, p models.Pagination) ([]models.Task, error) {
	opts := options.Find().SetSkip(p.Skip).SetLimit(p.Limit).SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, queryFilter(filters), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepository) Count(ctx context.Context, filters models.TaskFilters) (int64, error) {
	return r.collection.CountDocuments(ctx, queryFilter(filters))
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *MongoTaskRepository) FindByName(ctx context.Context, name string) ([]models.Task, error) {
	return r.findAll(ctx, bson.M{"name": name})
}

func (r *MongoTaskRepository) FindByDescription(ctx context.Context, description string) ([]models.Task, error) {
	return r.findAll(ctx, bson.M{"description": description})
}

func (r *MongoTaskRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.AssignedTo == nil {
		task.AssignedTo = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, task)
	return err
}

func (r *MongoTaskRepository) SetFields(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.AssignedTo != nil {
		set["assignedTo"] = patch.AssignedTo
	}
	if patch.ProjectID != nil {
		set["projectId"] = *patch.ProjectID
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.EndDate != nil {
		set["endDate"] = *patch.EndDate
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoTaskRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) (*models.Task, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (r *MongoTaskRepository) PushAssignee(ctx context.Context, taskID, userID primitive.ObjectID) (*models.Task, error) {
	return r.findOneAndUpdate(ctx, taskID, bson.M{"$push": bson.M{"assignedTo": userID}})
}

func (r *MongoTaskRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoTaskRepository) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepository) findAll(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task models.Task
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
