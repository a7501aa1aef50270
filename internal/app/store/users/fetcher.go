// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	departmentstore "github.com/dalemusser/missionhub/internal/app/store/departments"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/dalemusser/missionhub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Fetcher resolves session user ids into fresh profiles, joining in the
// department name. It satisfies auth.UserFetcher.
type Fetcher struct {
	users *Store
	depts *departmentstore.Store
	log   *zap.Logger
}

func NewFetcher(users *Store, depts *departmentstore.Store, log *zap.Logger) *Fetcher {
	return &Fetcher{users: users, depts: depts, log: log}
}

// FetchUser returns nil for unknown, malformed, or disabled accounts so
// those sessions are treated as signed out. A failed department lookup
// does not block sign-in; the name is just left empty.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	u, err := f.users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	if u.Status != status.Active {
		return nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.DepartmentID != nil {
		su.DepartmentID = u.DepartmentID.Hex()
		if d, err := f.depts.GetByID(ctx, *u.DepartmentID); err == nil {
			su.DepartmentName = d.Name
		} else {
			f.log.Debug("department lookup failed for session user",
				zap.String("user_id", su.ID), zap.Error(err))
		}
	}
	return su
}
