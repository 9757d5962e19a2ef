// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/vocelabs/vocehub/internal/app/system/timeouts"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Operators can override DB timeout tiers via TIMEOUT_* env vars.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("applied timeout overrides from environment", zap.Int("count", n))
	}

	logger.Info("vocehub starting",
		zap.Duration("archive_arm_delay", appCfg.ArchiveArmDelay),
		zap.String("audit_log_admin", appCfg.AuditLogAdmin),
		zap.String("audit_log_lifecycle", appCfg.AuditLogLifecycle))
	return nil
}
