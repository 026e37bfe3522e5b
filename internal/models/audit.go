package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionApprove        = "APPROVE"
	AuditActionReject         = "REJECT"
	AuditActionGradeRecord    = "GRADE_RECORD"
	AuditActionRosterAdd      = "ROSTER_ADD"
	AuditActionRosterRemove   = "ROSTER_REMOVE"
	AuditActionPaymentRecord  = "PAYMENT_RECORD"
	AuditActionDocumentUpload = "DOCUMENT_UPLOAD"
	AuditActionDocumentVerify = "DOCUMENT_VERIFY"
	AuditActionAccountCreate  = "ACCOUNT_CREATE"
	AuditActionAccountDelete  = "ACCOUNT_DELETE"
	AuditActionAccountUpdate  = "ACCOUNT_UPDATE"
	AuditActionCreate         = "CREATE"
	AuditActionDelete         = "DELETE"
)

// AuditLog represents an audit trail record. Appends are best-effort and must
// never block the operation that produced them.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter constrains audit log listings for the system-logs page.
type AuditFilter struct {
	ActorID    string
	EntityType string
	Limit      int
	Offset     int
}
