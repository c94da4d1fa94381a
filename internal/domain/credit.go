package domain

import "time"

type CreditStatus string

const (
	CreditStatusPending  CreditStatus = "PENDING"
	CreditStatusApproved CreditStatus = "APPROVED"
	CreditStatusRejected CreditStatus = "REJECTED"
	CreditStatusSkipped  CreditStatus = "SKIPPED"
	CreditStatusUnknown  CreditStatus = "UNKNOWN"
)

func (s CreditStatus) Valid() bool {
	switch s {
	case CreditStatusPending, CreditStatusApproved, CreditStatusRejected, CreditStatusSkipped, CreditStatusUnknown:
		return true
	}
	return false
}

// ParseCreditStatus maps a collaborator verdict onto a known status.
// Anything unrecognised is UNKNOWN rather than an error.
func ParseCreditStatus(s string) CreditStatus {
	status := CreditStatus(s)
	if status.Valid() {
		return status
	}
	return CreditStatusUnknown
}

// Reasons attached to credit results the orchestrator produces itself.
const (
	CreditReasonNoIdentifier = "no_national_id"
	CreditReasonUnavailable  = "credit_check_unavailable"
)

type CreditCheckResult struct {
	Status    CreditStatus `json:"status"`
	Score     *int         `json:"score"`
	Reason    string       `json:"reason"`
	CheckedAt time.Time    `json:"checked_at"`
}
