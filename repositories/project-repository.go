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

type MongoProjectRepository struct {
	collection *mongo.Collection
}

func NewMongoProjectRepository(db *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{collection: db.Collection("projects")}
}

func (r *MongoProjectRepository) Find(ctx context.Context, p models.Pagination) ([]models.Project, error) {
	opts := options.Find().SetSkip(p.Skip).SetLimit(p.Limit).SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *MongoProjectRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MongoProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if project.Users == nil {
		project.Users = []primitive.ObjectID{}
	}
	if project.Tasks == nil {
		project.Tasks = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, project)
	return err
}

func (r *MongoProjectRepository) SetFields(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Users != nil {
		set["users"] = patch.Users
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoProjectRepository) PushUser(ctx context.Context, projectID, userID primitive.ObjectID) (*models.Project, error) {
	return r.findOneAndUpdate(ctx, projectID, bson.M{"$push": bson.M{"users": userID}})
}

func (r *MongoProjectRepository) PushTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$push": bson.M{"tasks": taskID}})
	return err
}

func (r *MongoProjectRepository) AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$addToSet": bson.M{"tasks": taskID}})
	return err
}

func (r *MongoProjectRepository) PullTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$pull": bson.M{"tasks": taskID}})
	return err
}

func (r *MongoProjectRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoProjectRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Project, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var project models.Project
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}
