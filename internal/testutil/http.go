package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           string
	DepartmentID   string
	DepartmentName string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  "admin",
	}
}

// ChiefUser returns a TestUser with chief role in the department.
func ChiefUser(deptID primitive.ObjectID) TestUser {
	return TestUser{
		ID:           primitive.NewObjectID().Hex(),
		Name:         "Test Chief",
		Email:        "chief@test.com",
		Role:         "chief",
		DepartmentID: deptID.Hex(),
	}
}

// RegularUser returns a TestUser with user role in the department.
func RegularUser(deptID primitive.ObjectID) TestUser {
	return TestUser{
		ID:           primitive.NewObjectID().Hex(),
		Name:         "Test User",
		Email:        "user@test.com",
		Role:         "user",
		DepartmentID: deptID.Hex(),
	}
}

// WithUser injects a user into the request context, bypassing the
// session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		DepartmentID:   user.DepartmentID,
		DepartmentName: user.DepartmentName,
	}
	return auth.WithUser(r, sessionUser)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}
