// internal/testutil/http.go
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AdminActor returns an actor with the admin role.
func AdminActor() authz.Actor {
	return authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

// OperativeActor returns an actor with the admin_operativo role.
func OperativeActor() authz.Actor {
	return authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdminOperativo}
}

// CoordinatorActor returns a coordinador actor belonging to the given
// coordinations.
func CoordinatorActor(coordIDs ...primitive.ObjectID) authz.Actor {
	return authz.Actor{
		ID:              primitive.NewObjectID(),
		Role:            models.RoleCoordinador,
		CoordinationIDs: coordIDs,
	}
}

// NewRequest creates an HTTP request for testing. An empty body is fine
// for GETs; JSON strings work for mutation handlers.
func NewRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewActorRequest creates an HTTP request with an actor in context,
// bypassing the resolver middleware.
func NewActorRequest(method, target, body string, actor authz.Actor) *http.Request {
	return authz.WithActor(NewRequest(method, target, body), actor)
}
