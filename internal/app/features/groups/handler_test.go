package groups

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vocelabs/vocehub/internal/app/engine/permissions"
	assignmentstore "github.com/vocelabs/vocehub/internal/app/store/assignments"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	groupstore "github.com/vocelabs/vocehub/internal/app/store/groups"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/app/system/auditlog"
	"github.com/vocelabs/vocehub/internal/domain/models"
	"github.com/vocelabs/vocehub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	users := userstore.New(db)
	groups := groupstore.New(db)
	assignments := assignmentstore.New(db, testutil.TestClient(db), log)
	engine := permissions.New(assignments, groups, users)
	auditLog := auditlog.New(audit.New(db), log, auditlog.Config{Admin: "off", Lifecycle: "off"})

	h := NewHandler(log, groups, assignments, engine, auditLog)
	return h, testutil.NewFixtures(t, db)
}

func decodeGroupView(t *testing.T, rec *httptest.ResponseRecorder) groupView {
	t.Helper()
	var v groupView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestServeCreateAndGet(t *testing.T) {
	h, _ := newHandler(t)

	body := `{
		"name": "supervisores-norte",
		"display_name": "Supervisores Norte",
		"description": "<p>Supervisa ejecutivos</p><script>x()</script>",
		"base_role": "supervisor",
		"priority": 40,
		"permissions": [{"module":"users","action":"view"}]
	}`
	req := testutil.NewActorRequest(http.MethodPost, "/groups", body, testutil.AdminActor())
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decodeGroupView(t, rec)
	if created.BaseRole != "supervisor" {
		t.Errorf("base role = %q, want supervisor", created.BaseRole)
	}
	if !created.IsActive {
		t.Error("new group should be active")
	}
	if len(created.Permissions) != 1 {
		t.Errorf("permission count = %d, want 1", len(created.Permissions))
	}

	getReq := testutil.NewActorRequest(http.MethodGet, "/groups/"+created.ID, "", testutil.AdminActor())
	getReq = testutil.WithChiURLParam(getReq, "groupID", created.ID)
	getRec := httptest.NewRecorder()
	h.ServeGet(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", getRec.Code, http.StatusOK)
	}
	got := decodeGroupView(t, getRec)
	if got.Name != "supervisores-norte" {
		t.Errorf("name = %q, want supervisores-norte", got.Name)
	}
}

func TestServeCreateRejectsUnknownRole(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"name":"g","base_role":"superuser"}`
	req := testutil.NewActorRequest(http.MethodPost, "/groups", body, testutil.AdminActor())
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeListByRole(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateGroup(ctx, "admins", models.RoleAdmin, 100)
	fx.CreateGroup(ctx, "coordinadores", models.RoleCoordinador, 50)
	fx.CreateGroup(ctx, "ejecutivos", models.RoleEjecutivo, 10)

	type listResponse struct {
		Groups []groupView `json:"groups"`
	}
	run := func(t *testing.T, req *http.Request) listResponse {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeList(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp listResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp
	}

	t.Run("admin sees whole catalog", func(t *testing.T) {
		resp := run(t, testutil.NewActorRequest(http.MethodGet, "/groups", "", testutil.AdminActor()))
		if len(resp.Groups) != 3 {
			t.Fatalf("listed %d groups, want 3", len(resp.Groups))
		}
	})

	t.Run("coordinator sees only assignable groups", func(t *testing.T) {
		resp := run(t, testutil.NewActorRequest(http.MethodGet, "/groups", "", testutil.CoordinatorActor()))
		for _, g := range resp.Groups {
			if g.BaseRole != "ejecutivo" {
				t.Errorf("coordinator offered group %q with base role %q", g.Name, g.BaseRole)
			}
		}
	})
}

func TestServeUpdatePatch(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "ejecutivos", models.RoleEjecutivo, 10,
		models.Permission{Module: "users", Action: "view"})

	body := `{"display_name":"Ejecutivos de Campo","priority":15}`
	req := testutil.NewActorRequest(http.MethodPut, "/groups/"+g.ID.Hex(), body, testutil.AdminActor())
	req = testutil.WithChiURLParam(req, "groupID", g.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	got := decodeGroupView(t, rec)
	if got.DisplayName != "Ejecutivos de Campo" {
		t.Errorf("display name = %q, want Ejecutivos de Campo", got.DisplayName)
	}
	if got.Priority != 15 {
		t.Errorf("priority = %d, want 15", got.Priority)
	}
	// Fields not in the patch keep their values.
	if got.BaseRole != "ejecutivo" {
		t.Errorf("base role = %q, want ejecutivo", got.BaseRole)
	}
	if len(got.Permissions) != 1 {
		t.Errorf("permission count = %d, want 1", len(got.Permissions))
	}
}

func TestServeDeleteCascadesAssignments(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "ejecutivos", models.RoleEjecutivo, 10)
	u1 := fx.CreateUser(ctx, "Elena Vidal", "elena@example.com")
	u2 := fx.CreateUser(ctx, "Oscar Pinto", "oscar@example.com")
	fx.CreateAssignment(ctx, u1.ID, g.ID, true)
	fx.CreateAssignment(ctx, u2.ID, g.ID, true)

	req := testutil.NewActorRequest(http.MethodDelete, "/groups/"+g.ID.Hex(), "", testutil.AdminActor())
	req = testutil.WithChiURLParam(req, "groupID", g.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Deleted            bool `json:"deleted"`
		AssignmentsRemoved int  `json:"assignments_removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Deleted || resp.AssignmentsRemoved != 2 {
		t.Errorf("response = %+v, want deleted with 2 assignments removed", resp)
	}

	left, err := h.Assignments.ListByUser(ctx, u1.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("user still holds %d assignments after group delete", len(left))
	}
}

func TestServeDeleteProtectsSystemGroups(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateSystemGroup(ctx, "administradores", models.RoleAdmin, 100)

	req := testutil.NewActorRequest(http.MethodDelete, "/groups/"+g.ID.Hex(), "", testutil.AdminActor())
	req = testutil.WithChiURLParam(req, "groupID", g.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDelete(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestServeMembersCount(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "ejecutivos", models.RoleEjecutivo, 10)
	u := fx.CreateUser(ctx, "Elena Vidal", "elena@example.com")
	fx.CreateAssignment(ctx, u.ID, g.ID, true)

	req := testutil.NewActorRequest(http.MethodGet, "/groups/"+g.ID.Hex()+"/members", "", testutil.AdminActor())
	req = testutil.WithChiURLParam(req, "groupID", g.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeMembers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		MemberCount int `json:"member_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", resp.MemberCount)
	}
}

func TestServeCatalog(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewActorRequest(http.MethodGet, "/groups/catalog", "", testutil.AdminActor())
	rec := httptest.NewRecorder()
	h.ServeCatalog(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Modules []struct {
			ID      string   `json:"id"`
			Actions []string `json:"actions"`
		} `json:"modules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Modules) == 0 {
		t.Fatal("catalog is empty")
	}
	for _, m := range resp.Modules {
		if m.ID == "" || len(m.Actions) == 0 {
			t.Errorf("catalog module %+v missing id or actions", m)
		}
	}
}
