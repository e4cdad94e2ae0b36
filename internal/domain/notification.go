package domain

import "time"

// NotificationType identifies the kind of intent handed to the delivery sink.
type NotificationType string

const (
	NotificationEscalation        NotificationType = "escalation"
	NotificationRuleMisconfigured NotificationType = "rule_misconfigured"
)

// NotificationIntent asks the external delivery sink to notify recipients.
type NotificationIntent struct {
	ID                  string           `json:"id"`
	Type                NotificationType `json:"type"`
	TicketID            int64            `json:"ticketId"`
	RuleID              *int64           `json:"ruleId,omitempty"`
	TargetUserID        *int64           `json:"targetUserId,omitempty"`
	TargetRole          *string          `json:"targetRole,omitempty"`
	RecipientUserIDs    []int64          `json:"recipientUserIds,omitempty"`
	NotifyManagerFanout bool             `json:"notifyManagerFanout"`
	HistoryID           int64            `json:"historyId"`
	Level               int              `json:"level"`
	Reason              string           `json:"reason"`
	CreatedAt           time.Time        `json:"createdAt"`
}
