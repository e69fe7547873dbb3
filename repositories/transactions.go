package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTxRunner wraps writes in a MongoDB session transaction. All
// repository calls made with the context it hands to fn join the same
// transaction; an error from fn aborts everything.
type MongoTxRunner struct {
	client *mongo.Client
}

func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
