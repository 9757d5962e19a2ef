// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vocelabs/vocehub/internal/app/engine/lifecycle"
	"github.com/vocelabs/vocehub/internal/app/engine/permissions"
	auditlogfeature "github.com/vocelabs/vocehub/internal/app/features/auditlog"
	coordinationsfeature "github.com/vocelabs/vocehub/internal/app/features/coordinations"
	groupsfeature "github.com/vocelabs/vocehub/internal/app/features/groups"
	healthfeature "github.com/vocelabs/vocehub/internal/app/features/health"
	usersfeature "github.com/vocelabs/vocehub/internal/app/features/users"
	assignmentstore "github.com/vocelabs/vocehub/internal/app/store/assignments"
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	coordinationstore "github.com/vocelabs/vocehub/internal/app/store/coordinations"
	groupstore "github.com/vocelabs/vocehub/internal/app/store/groups"
	userstore "github.com/vocelabs/vocehub/internal/app/store/users"
	"github.com/vocelabs/vocehub/internal/app/system/auditlog"
	"github.com/vocelabs/vocehub/internal/app/system/authz"
	"github.com/vocelabs/vocehub/internal/app/system/notify"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. VoceHub builds the store layer, the
// permission and lifecycle engines on top of it, and mounts one JSON
// feature router per resource. Every request passes through the actor
// middleware, which resolves the gateway-supplied X-Actor-ID header into
// a role and membership set; requests without a resolvable actor fail
// closed at the role middleware and policy checks.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.VoceHubMongoDatabase
	client := deps.VoceHubMongoClient

	// Stores, one per collection family.
	users := userstore.New(db)
	groups := groupstore.New(db)
	assignments := assignmentstore.New(db, client, logger)
	coordinations := coordinationstore.New(db, client, logger)
	auditStore := audit.New(db)

	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Admin:     appCfg.AuditLogAdmin,
		Lifecycle: appCfg.AuditLogLifecycle,
	})

	// Engines.
	permEngine := permissions.New(assignments, groups, users)
	lifecycleEngine := lifecycle.New(coordinations, notify.NewLogNotifier(logger), logger,
		lifecycle.WithArmDelay(appCfg.ArchiveArmDelay))

	resolver := &actorResolver{
		users:         users,
		coordinations: coordinations,
		engine:        permEngine,
	}

	r := chi.NewRouter()

	// Resolve X-Actor-ID into an Actor for every request.
	r.Use(authz.LoadActor(resolver))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// User administration: listing, effective permissions, group and
	// membership assignment.
	usersHandler := usersfeature.NewHandler(logger, users, groups, assignments, coordinations, permEngine, auditLog)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Permission group management.
	groupsHandler := groupsfeature.NewHandler(logger, groups, assignments, permEngine, auditLog)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Coordination CRUD and the archive/reassignment lifecycle.
	coordinationsHandler := coordinationsfeature.NewHandler(logger, coordinations, users, lifecycleEngine, auditLog)
	r.Mount("/coordinations", coordinationsfeature.Routes(coordinationsHandler))

	// Audit trail queries.
	auditHandler := auditlogfeature.NewHandler(auditStore, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler))

	return r, nil
}
