package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationPayload is what the external notifier consumes: who to tell,
// which template to render, and the entities the template references.
type NotificationPayload struct {
	RecipientID uuid.UUID            `json:"recipient_id"`
	Template    EventType            `json:"template"`
	EntityIDs   map[string]uuid.UUID `json:"entity_ids"`
}

// NewTransactionPostedEvent creates the standard ledger event for an entry.
func NewTransactionPostedEvent(tx *Transaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	aggID := ""
	if tx.WalletID != nil {
		aggID = tx.WalletID.String()
	} else {
		aggID = tx.ID.String()
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   aggID,
		EventType:     EventTransactionPosted,
		PartitionKey:  aggID,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewNotificationEvent creates an outbox draft carrying a notifier payload.
func NewNotificationEvent(aggregate AggregateType, aggregateID uuid.UUID, template EventType, recipientID uuid.UUID, entityIDs map[string]uuid.UUID) OutboxDraft {
	payload, _ := json.Marshal(NotificationPayload{
		RecipientID: recipientID,
		Template:    template,
		EntityIDs:   entityIDs,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: aggregate,
		AggregateID:   aggregateID.String(),
		EventType:     template,
		PartitionKey:  recipientID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
