package security

import (
	"fmt"
	"sync"

	"board-tracker/internal/errors"
)

// OperationType represents the type of operation.
type OperationType string

const (
	// Read operations
	OpRead OperationType = "READ"

	// Write operations (blocked in read-only mode)
	OpStart  OperationType = "START_CONTROLLER"
	OpStop   OperationType = "STOP_CONTROLLER"
	OpSave   OperationType = "SAVE_CONTROLLER"
	OpUpdate OperationType = "UPDATE_CONTROLLER"
	OpReset  OperationType = "RESET_CONTROLLER"
)

// ReadOnlyError represents an error when attempting a write operation in read-only mode.
type ReadOnlyError struct {
	Operation OperationType
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("operation %s blocked: read-only mode is enabled", e.Operation)
}

func (e *ReadOnlyError) Unwrap() error {
	return errors.ErrReadOnlyMode
}

// AccessController manages read-only mode.
type AccessController struct {
	readOnly bool
	mu       sync.RWMutex
}

// NewAccessController creates a new access controller.
func NewAccessController(readOnly bool) *AccessController {
	return &AccessController{readOnly: readOnly}
}

// IsReadOnly returns whether read-only mode is enabled.
func (ac *AccessController) IsReadOnly() bool {
	if ac == nil {
		return false
	}
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.readOnly
}

// SetReadOnly sets the read-only mode.
func (ac *AccessController) SetReadOnly(readOnly bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.readOnly = readOnly
}

// CheckPermission checks if an operation is allowed. A nil controller allows
// everything.
func (ac *AccessController) CheckPermission(op OperationType) error {
	if !ac.IsReadOnly() {
		return nil
	}
	if isWriteOperation(op) {
		return &ReadOnlyError{Operation: op}
	}
	return nil
}

// isWriteOperation returns true if the operation modifies agent state.
func isWriteOperation(op OperationType) bool {
	switch op {
	case OpStart, OpStop, OpSave, OpUpdate, OpReset:
		return true
	default:
		return false
	}
}
