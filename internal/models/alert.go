// internal/models/alert.go
package models

type AlertNotification struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	RiskLevel RiskLevel `json:"riskLevel"`
	Summary   string    `json:"summary"`
	Channel   string    `json:"channel"` // "email", "sns"
	Status    string    `json:"status"`  // "sent", "failed", "skipped"
	SentAt    string    `json:"sentAt,omitempty"`
	CreatedAt string    `json:"createdAt"`
}
