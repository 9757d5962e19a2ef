// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS, body limits). AppConfig is everything specific to
// VoceHub: the Mongo connection, the archive arming window, and audit
// logging behavior.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// ArchiveArmDelay is how long an armed coordination archive must
	// wait before commit is accepted. The window is measured
	// server-side from the arming timestamp.
	ArchiveArmDelay time.Duration

	// AuditLogAdmin controls admin event logging (user/group/assignment
	// mutations): "all" (db+log), "db", "log", or "off".
	AuditLogAdmin string
	// AuditLogLifecycle controls coordination lifecycle event logging
	// (pause/resume/archive/delete). Same values as AuditLogAdmin.
	AuditLogLifecycle string
}
