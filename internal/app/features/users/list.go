// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/features/respond"
	"github.com/vocelabs/vocehub/internal/app/policy/scopepolicy"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
	"github.com/vocelabs/vocehub/internal/domain/models"
)

// userView is a user as the console sees them: record fields plus the
// derived functional role and coordination scope.
type userView struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	Phone           string   `json:"phone,omitempty"`
	Status          string   `json:"status"`
	Role            string   `json:"role"`
	CoordinationIDs []string `json:"coordination_ids"`
}

func makeView(u models.User, subj scopepolicy.Subject) userView {
	coordIDs := make([]string, 0, len(subj.CoordinationIDs))
	for _, id := range subj.CoordinationIDs {
		coordIDs = append(coordIDs, id.Hex())
	}
	return userView{
		ID:              u.ID.Hex(),
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Status:          u.Status,
		Role:            subj.Role.String(),
		CoordinationIDs: coordIDs,
	}
}

// ServeList handles GET /users. The listing is bounded by the actor's
// scope and then filtered per record, so a coordinator only ever sees
// the ejecutivos of their own coordinations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorCtx(r)
	if !ok {
		respond.Forbidden(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	as := actorSubject(actor)
	scope := scopepolicy.ListScope(as)
	if scope.Empty() {
		respond.Forbidden(w)
		return
	}

	var (
		records []models.User
		err     error
	)
	if scope.All {
		records, err = h.Users.List(ctx, nil)
	} else {
		ids, serr := h.Coordinations.UserIDsInCoordinations(ctx, scope.CoordinationIDs)
		if serr != nil {
			respond.Err(w, h.Log, serr)
			return
		}
		records, err = h.Users.List(ctx, ids)
	}
	if err != nil {
		respond.Err(w, h.Log, err)
		return
	}

	out := make([]userView, 0, len(records))
	for _, u := range records {
		subj, err := h.subjectFor(ctx, u.ID)
		if err != nil {
			respond.Err(w, h.Log, err)
			return
		}
		if !scopepolicy.CanViewUser(as, subj) {
			continue
		}
		out = append(out, makeView(u, subj))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": out})
}
