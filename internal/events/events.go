package events

// Platform event types consumed by downstream rollups and webhooks.
const (
	EventCreditPurchased = "credit.purchased"
	EventCreditDeducted  = "credit.deducted"
	EventCreditRefunded  = "credit.refunded"
	EventAccountDeleted  = "account.deleted"
)

// CreditPayload captures the minimal data needed to roll up a wallet change.
type CreditPayload struct {
	TransactionID string `json:"transaction_id"`
	BrandID       string `json:"brand_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	ServiceUsed   string `json:"service_used,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p CreditPayload) ToMap() map[string]any {
	payload := map[string]any{
		"transaction_id": p.TransactionID,
		"brand_id":       p.BrandID,
		"type":           p.Type,
		"amount":         p.Amount,
	}
	if p.ServiceUsed != "" {
		payload["service_used"] = p.ServiceUsed
	}
	return payload
}

// AccountDeletedPayload captures the identity snapshot taken before the user
// row was removed.
type AccountDeletedPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Reason   string `json:"reason,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p AccountDeletedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"user_id":  p.UserID,
		"username": p.Username,
	}
	if p.Reason != "" {
		payload["reason"] = p.Reason
	}
	return payload
}
