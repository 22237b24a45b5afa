// Package logging also provides an append-only audit trail for operator actions.
// Every bulk action and session event is recorded as one JSON line in
// .simfleet/audit.log regardless of debug_mode: the audit trail is a
// compliance artifact, not a debugging aid.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Session events
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"
	AuditLoginFailed  AuditEventType = "login_failed"

	// Bulk action events
	AuditActionSubmit   AuditEventType = "action_submit"
	AuditActionAccepted AuditEventType = "action_accepted"
	AuditActionRejected AuditEventType = "action_rejected"
	AuditActionError    AuditEventType = "action_error"
)

// AuditEvent represents a structured audit log entry.
type AuditEvent struct {
	Timestamp int64          `json:"ts"` // Unix milliseconds
	EventType AuditEventType `json:"event"`
	Actor     string         `json:"actor,omitempty"`
	RequestID string         `json:"req,omitempty"`
	SimIDs    []int64        `json:"sim_ids,omitempty"`
	Action    string         `json:"action,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Success   bool           `json:"success"`
	Message   string         `json:"msg,omitempty"`
}

// AuditLogger appends events to the audit file. Safe for concurrent use.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

var (
	auditLogger *AuditLogger
	auditOnce   sync.Once
)

// Audit returns the process-wide audit logger, creating the file on first use.
// Returns a no-op logger when the workspace is not initialized.
func Audit() *AuditLogger {
	auditOnce.Do(func() {
		auditLogger = &AuditLogger{}
		if workspace == "" {
			return
		}
		dir := filepath.Join(workspace, ".simfleet")
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[audit] Warning: could not create audit dir: %v\n", err)
			return
		}
		path := filepath.Join(dir, "audit.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[audit] Warning: could not open audit log: %v\n", err)
			return
		}
		auditLogger.file = f
	})
	return auditLogger
}

// Record appends one event. Timestamp is stamped here.
func (a *AuditLogger) Record(ev AuditEvent) {
	if a == nil || a.file == nil {
		return
	}
	ev.Timestamp = time.Now().UnixMilli()

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.file, "%s\n", data)
}

// Close closes the audit file (call at shutdown).
func (a *AuditLogger) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		a.file.Close()
		a.file = nil
	}
}

// RecordAction is a convenience wrapper for bulk-action audit events.
func RecordAction(eventType AuditEventType, actor, requestID string, simIDs []int64, action, reason, message string, success bool) {
	Audit().Record(AuditEvent{
		EventType: eventType,
		Actor:     actor,
		RequestID: requestID,
		SimIDs:    simIDs,
		Action:    action,
		Reason:    reason,
		Success:   success,
		Message:   message,
	})
}
