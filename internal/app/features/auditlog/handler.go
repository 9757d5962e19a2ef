// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/vocelabs/vocehub/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Log   *zap.Logger
	Audit *audit.Store
}

// NewHandler constructs an audit log feature handler bound to the audit
// store.
func NewHandler(auditStore *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Log:   logger,
		Audit: auditStore,
	}
}
