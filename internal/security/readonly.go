package security

import (
	"context"
	"fmt"

	gwerrors "zerodha-roast/internal/errors"
)

// OperationType represents the type of gateway operation.
type OperationType string

const (
	OpRead       OperationType = "READ"
	OpSession    OperationType = "SESSION_EXCHANGE"
	OpPlaceOrder OperationType = "PLACE_ORDER"
)

// ReadOnlyError represents an error when attempting a write operation in read-only mode.
type ReadOnlyError struct {
	Operation OperationType
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("operation %s blocked: read-only mode is enabled", e.Operation)
}

func (e *ReadOnlyError) Unwrap() error {
	return gwerrors.ErrReadOnlyMode
}

// AccessController decides whether write operations may reach the broker.
// It is configured once at startup and never mutated afterwards.
type AccessController struct {
	readOnly    bool
	auditLogger *AuditLogger
}

// NewAccessController creates a new access controller. auditLogger may be nil.
func NewAccessController(readOnly bool, auditLogger *AuditLogger) *AccessController {
	return &AccessController{
		readOnly:    readOnly,
		auditLogger: auditLogger,
	}
}

// IsReadOnly returns whether read-only mode is enabled.
func (ac *AccessController) IsReadOnly() bool {
	return ac != nil && ac.readOnly
}

// CheckPermission checks if an operation is allowed.
func (ac *AccessController) CheckPermission(ctx context.Context, op OperationType) error {
	if !ac.IsReadOnly() || !isWriteOperation(op) {
		return nil
	}

	if ac.auditLogger != nil {
		_ = ac.auditLogger.LogReadOnlyViolation(ctx, string(op))
	}
	return &ReadOnlyError{Operation: op}
}

// isWriteOperation returns true if the operation changes broker-side state.
func isWriteOperation(op OperationType) bool {
	return op == OpPlaceOrder
}
