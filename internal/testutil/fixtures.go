package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDepartment inserts a department and returns it with its
// generated id.
func (f *Fixtures) CreateDepartment(ctx context.Context, acronym, name string) models.Department {
	f.t.Helper()

	now := time.Now().UTC()
	dept := models.Department{
		ID:        primitive.NewObjectID(),
		Acronym:   acronym,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("departments").InsertOne(ctx, dept); err != nil {
		f.t.Fatalf("insert fixture department: %v", err)
	}
	return dept
}

// CreateUser inserts a user with the password "fixture-pass" hashed.
// deptID may be nil for admins.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string, deptID *primitive.ObjectID) models.User {
	f.t.Helper()

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("fixture-pass"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	hash := string(hashBytes)

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Status:       "active",
		DepartmentID: deptID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("insert fixture user: %v", err)
	}
	return u
}

// CreateMission inserts an active mission created by the given user.
func (f *Fixtures) CreateMission(ctx context.Context, title string, createdBy models.User, deptID *primitive.ObjectID) models.Mission {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Mission{
		ID:            primitive.NewObjectID(),
		Title:         title,
		TitleCI:       text.Fold(title),
		CreatedBy:     createdBy.ID,
		CreatedByName: createdBy.Name,
		DepartmentID:  deptID,
		Status:        models.MissionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("missions").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("insert fixture mission: %v", err)
	}
	return m
}

// CreateRecommendation inserts an in-progress recommendation assigned
// to the given user.
func (f *Fixtures) CreateRecommendation(ctx context.Context, title, description string, assignee models.User, deptID *primitive.ObjectID) models.Recommendation {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.Recommendation{
		ID:            primitive.NewObjectID(),
		Content:       models.JoinContent(title, description),
		UserID:        assignee.ID,
		CreatedByName: assignee.Name,
		DepartmentID:  deptID,
		Status:        models.RecInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("recommendations").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("insert fixture recommendation: %v", err)
	}
	return rec
}
