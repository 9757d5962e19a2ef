// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for VoceHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, archive_arm_delay, etc.
//   - Environment variables: VOCEHUB_MONGO_URI, VOCEHUB_ARCHIVE_ARM_DELAY, etc.
//   - Command-line flags: --mongo_uri, --archive_arm_delay, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "voce_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Archive arming window. Commit of an armed archive is rejected until
	// this much time has passed since arming.
	{Name: "archive_arm_delay", Default: "5s", Desc: "Delay between arming a coordination archive and the earliest accepted commit (e.g., 5s, 30s)"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_lifecycle", Default: "all", Desc: "Lifecycle event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, VOCEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VOCEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		ArchiveArmDelay: appValues.Duration("archive_arm_delay", 5*time.Second),

		AuditLogAdmin:     appValues.String("audit_log_admin"),
		AuditLogLifecycle: appValues.String("audit_log_lifecycle"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// VoceHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and rejects a non-positive
// arming delay since that would let an archive commit land instantly.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.ArchiveArmDelay <= 0 {
		return fmt.Errorf("archive_arm_delay must be positive, got %s", appCfg.ArchiveArmDelay)
	}

	for _, mode := range []struct {
		name  string
		value string
	}{
		{"audit_log_admin", appCfg.AuditLogAdmin},
		{"audit_log_lifecycle", appCfg.AuditLogLifecycle},
	} {
		switch mode.value {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be 'all', 'db', 'log', or 'off', got %q", mode.name, mode.value)
		}
	}

	return nil
}
