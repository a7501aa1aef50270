// internal/app/store/missions/missionstore.go
package missionstore

import (
	"context"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/missionpolicy"
	"github.com/dalemusser/missionhub/internal/app/store/changefeed"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
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
	return &Store{c: db.Collection("missions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Mission, error) {
	var m models.Mission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Mission{}, err
	}
	return m, nil
}

// List returns the missions inside the caller's policy scope, newest
// first. The scope filter is the security boundary; it is applied
// Mongo-side so a compromised UI filter cannot widen it.
func (s *Store) List(ctx context.Context, scope missionpolicy.ListScope) ([]models.Mission, error) {
	if !scope.CanList {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, scope.Filter(),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Mission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns the collection keyed by id, for seeding the feed cache.
func (s *Store) All(ctx context.Context) (map[primitive.ObjectID]models.Mission, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]models.Mission)
	for cur.Next(ctx) {
		var m models.Mission
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, cur.Err()
}

func (s *Store) Create(ctx context.Context, m models.Mission) (models.Mission, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Title = normalize.Name(m.Title)
	m.TitleCI = text.Fold(m.Title)
	if m.Status == "" {
		m.Status = models.MissionActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Mission{}, err
	}
	return m, nil
}

// Update holds the mutable mission fields. Nil pointers leave the field
// unchanged; ClearDeadline unsets the deadline.
type Update struct {
	Title         *string
	Description   *string
	DepartmentID  *primitive.ObjectID
	Deadline      *time.Time
	ClearDeadline bool
}

// ApplyTo overlays the update on a copy of m, mirroring what
// UpdateInfo writes. Handlers serve this copy when the post-write
// re-read fails.
func (u Update) ApplyTo(m models.Mission) models.Mission {
	if u.Title != nil {
		m.Title = normalize.Name(*u.Title)
		m.TitleCI = text.Fold(m.Title)
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.DepartmentID != nil {
		m.DepartmentID = u.DepartmentID
	}
	if u.ClearDeadline {
		m.Deadline = nil
	} else if u.Deadline != nil {
		m.Deadline = u.Deadline
	}
	m.UpdatedAt = time.Now().UTC()
	return m
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, u Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if u.Title != nil {
		title := normalize.Name(*u.Title)
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.DepartmentID != nil {
		set["department_id"] = *u.DepartmentID
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

// SetCompleted marks the mission completed (or active again when
// completed=false, clearing completed_at).
func (s *Store) SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool, at time.Time) error {
	var update bson.M
	if completed {
		update = bson.M{"$set": bson.M{
			"status":       models.MissionCompleted,
			"completed_at": at.UTC(),
			"updated_at":   at.UTC(),
		}}
	} else {
		update = bson.M{
			"$set":   bson.M{"status": models.MissionActive, "updated_at": at.UTC()},
			"$unset": bson.M{"completed_at": ""},
		}
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

// Delete removes a mission. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Watch streams mission changes into apply until ctx is canceled.
func (s *Store) Watch(ctx context.Context, log *zap.Logger, apply func(feedcache.Event[models.Mission])) error {
	return changefeed.Run(ctx, s.c, log, apply)
}
