package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuditAction string

const (
	AuditGenerate AuditAction = "GENERATE"
	AuditApprove  AuditAction = "APPROVE"
	AuditDelete   AuditAction = "DELETE"
	AuditCompare  AuditAction = "COMPARE"
)

// AuditEntry records one trial balance operation.
type AuditEntry struct {
	ID              string          `json:"id"`
	Action          AuditAction     `json:"action"`
	TrialBalanceID  string          `json:"trial_balance_id,omitempty"`
	ComparedWithID  string          `json:"compared_with_id,omitempty"`
	UserID          string          `json:"user_id"`
	Year            int             `json:"year,omitempty"`
	Month           int             `json:"month,omitempty"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
	Details         string          `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
