// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/missionhub/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Store *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs an audit log feature handler bound to the
// audit store and logger.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}
