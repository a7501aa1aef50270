package indexes_test

import (
	"testing"

	"github.com/dalemusser/missionhub/internal/app/system/indexes"
	"github.com/dalemusser/missionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.Ensure(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := indexes.Ensure(ctx, db, zap.NewNop()); err != nil {
			t.Fatalf("Ensure run %d failed: %v", i+1, err)
		}
	}
}

func TestEnsure_UserEmailUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.Ensure(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	cur, err := db.Collection("users").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var idx struct {
			Name   string `bson:"name"`
			Key    bson.D `bson:"key"`
			Unique bool   `bson:"unique"`
		}
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if idx.Name == "uniq_email" {
			found = true
			if !idx.Unique {
				t.Error("uniq_email index is not unique")
			}
		}
	}
	if !found {
		t.Error("uniq_email index not created")
	}
}
