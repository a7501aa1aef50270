// internal/app/store/recommendations/recommendationstore.go
package recommendationstore

import (
	"context"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/recommendationpolicy"
	"github.com/dalemusser/missionhub/internal/app/store/changefeed"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/lifecycle"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("recommendations")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Recommendation, error) {
	var rec models.Recommendation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return models.Recommendation{}, err
	}
	return rec, nil
}

// List returns the recommendations inside the caller's policy scope,
// newest first.
func (s *Store) List(ctx context.Context, scope recommendationpolicy.ListScope) ([]models.Recommendation, error) {
	if !scope.CanList {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, scope.Filter(),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Recommendation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns the collection keyed by id, for seeding the feed cache.
func (s *Store) All(ctx context.Context) (map[primitive.ObjectID]models.Recommendation, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]models.Recommendation)
	for cur.Next(ctx) {
		var rec models.Recommendation
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out[rec.ID] = rec
	}
	return out, cur.Err()
}

// Create inserts a recommendation with the title and description joined
// into the stored content field. The caller supplies the enriched
// creator name; "Unknown" when the lookup failed.
func (s *Store) Create(ctx context.Context, rec models.Recommendation, title, description string) (models.Recommendation, error) {
	now := time.Now().UTC()
	rec.ID = primitive.NewObjectID()
	rec.Content = models.JoinContent(title, description)
	if rec.Status == "" {
		rec.Status = models.RecInProgress
	}
	if rec.CreatedByName == "" {
		rec.CreatedByName = "Unknown"
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.Recommendation{}, err
	}
	return rec, nil
}

// Update holds the mutable recommendation fields outside the status
// machine. Nil pointers leave the field unchanged.
type Update struct {
	Title         *string
	Description   *string
	UserID        *primitive.ObjectID
	DepartmentID  *primitive.ObjectID
	MissionID     *primitive.ObjectID
	ClearMission  bool
	Deadline      *time.Time
	ClearDeadline bool
}

// ApplyTo overlays the update on a copy of rec, mirroring what
// UpdateInfo writes. Handlers serve this copy when the post-write
// re-read fails.
func (u Update) ApplyTo(rec models.Recommendation) models.Recommendation {
	if u.Title != nil && u.Description != nil {
		rec.Content = models.JoinContent(*u.Title, *u.Description)
	}
	if u.UserID != nil {
		rec.UserID = *u.UserID
	}
	if u.DepartmentID != nil {
		rec.DepartmentID = u.DepartmentID
	}
	if u.ClearMission {
		rec.MissionID = nil
	} else if u.MissionID != nil {
		rec.MissionID = u.MissionID
	}
	if u.ClearDeadline {
		rec.Deadline = nil
	} else if u.Deadline != nil {
		rec.Deadline = u.Deadline
	}
	rec.UpdatedAt = time.Now().UTC()
	return rec
}

// UpdateInfo applies content and assignment edits. When either half of
// the content changes the other half must be re-supplied, so handlers
// pass both; a nil pair leaves content alone.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, u Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if u.Title != nil && u.Description != nil {
		set["content"] = models.JoinContent(*u.Title, *u.Description)
	}
	if u.UserID != nil {
		set["user_id"] = *u.UserID
	}
	if u.DepartmentID != nil {
		set["department_id"] = *u.DepartmentID
	}
	if u.ClearMission {
		unset["mission_id"] = ""
	} else if u.MissionID != nil {
		set["mission_id"] = *u.MissionID
	}
	if u.ClearDeadline {
		unset["deadline"] = ""
	} else if u.Deadline != nil {
		set["deadline"] = *u.Deadline
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ApplyEffects persists a validated transition's effects. The document
// is only touched when its status still matches from, so a concurrent
// transition loses cleanly instead of double-applying.
func (s *Store) ApplyEffects(ctx context.Context, id primitive.ObjectID, from string, e lifecycle.Effects) error {
	set := bson.M{
		"status":     e.Status,
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}

	if e.ClearConfirmation {
		unset["confirmed_at"] = ""
		unset["confirmed_by"] = ""
		unset["completed_at"] = ""
	}
	if e.ConfirmedAt != nil {
		set["confirmed_at"] = *e.ConfirmedAt
	}
	if e.ConfirmedBy != nil {
		set["confirmed_by"] = *e.ConfirmedBy
	}
	if e.CompletedAt != nil {
		set["completed_at"] = *e.CompletedAt
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	// Legacy documents may still carry "completed" where canonical reads
	// report "confirmed"; match either spelling of the from-state.
	filter := bson.M{"_id": id, "status": from}
	if from == models.RecConfirmed {
		filter["status"] = bson.M{"$in": bson.A{models.RecConfirmed, models.RecCompleted}}
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a recommendation. Returns the number of documents
// deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Watch streams recommendation changes into apply until ctx is canceled.
func (s *Store) Watch(ctx context.Context, log *zap.Logger, apply func(feedcache.Event[models.Recommendation])) error {
	return changefeed.Run(ctx, s.c, log, apply)
}
