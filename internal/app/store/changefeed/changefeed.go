// Package changefeed turns a Mongo change stream into feedcache events.
//
// This is the push side of the persistence contract: each watched
// collection delivers added/modified/removed notifications that the
// bootstrap wires into the corresponding cache. Events are applied in
// receipt order; there is no replay or version reconciliation beyond the
// cache's last-write-wins merge.
package changefeed

import (
	"context"

	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Run watches one collection until ctx is canceled, invoking apply for
// every change. Decode failures are logged and skipped; a broken stream
// returns its error so the caller can decide whether to restart.
func Run[T any](ctx context.Context, coll *mongo.Collection, log *zap.Logger, apply func(feedcache.Event[T])) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	cs, err := coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var change struct {
			OperationType string `bson:"operationType"`
			FullDocument  T      `bson:"fullDocument"`
			DocumentKey   struct {
				ID primitive.ObjectID `bson:"_id"`
			} `bson:"documentKey"`
		}
		if err := cs.Decode(&change); err != nil {
			log.Warn("change stream decode failed",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}

		var ev feedcache.Event[T]
		switch change.OperationType {
		case "insert":
			ev = feedcache.NewEvent(feedcache.Added, change.DocumentKey.ID, change.FullDocument)
		case "update", "replace":
			ev = feedcache.NewEvent(feedcache.Modified, change.DocumentKey.ID, change.FullDocument)
		case "delete":
			var zero T
			ev = feedcache.NewEvent(feedcache.Removed, change.DocumentKey.ID, zero)
		default:
			continue
		}

		log.Debug("change feed event",
			zap.String("collection", coll.Name()),
			zap.String("event_id", ev.ID.String()),
			zap.String("type", string(ev.Type)),
			zap.String("key", ev.Key.Hex()))
		apply(ev)
	}

	if err := cs.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
