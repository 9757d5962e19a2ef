// internal/app/features/users/edit.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/htmlsanitize"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

// ServeCreate handles POST /users. Admin roles only (route middleware);
// the new user starts with no groups and no memberships.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	var req createUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		respond.BadRequest(w, "email is required")
		return
	}
	if req.FullName == "" {
		respond.BadRequest(w, "full_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Email:    req.Email,
		FullName: htmlsanitize.StripTags(req.FullName),
		Phone:    htmlsanitize.StripTags(req.Phone),
		Status:   req.Status,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Conflict(w, err.Error())
			return
		}
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		UserID:    &u.ID,
		ActorID:   &actor.ID,
		Success:   true,
		Details:   map[string]string{"email": u.Email},
	})

	subj := scopepolicy.Subject{ID: u.ID, Role: models.RoleUnassigned}
	respond.JSON(w, http.StatusCreated, makeView(u, subj))
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

// ServeUpdate handles PUT /users/{userID}: profile fields only. Group
// and membership changes go through their own endpoints.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(r, "userID")
	if !ok {
		respond.BadRequest(w, "invalid user id")
		return
	}
	var req updateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	subj, err := h.subjectFor(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	if !scopepolicy.CanEditUser(actorSubject(actor), subj) {
		respond.Forbidden(w)
		return
	}

	if err := h.Users.UpdateInfo(ctx, id,
		htmlsanitize.StripTags(req.FullName),
		htmlsanitize.StripTags(req.Phone),
		req.Status,
	); err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	h.auditEvent(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserUpdated,
		UserID:    &id,
		ActorID:   &actor.ID,
		Success:   true,
	})

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, makeView(*u, subj))
}
