package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventTransactionPosted    EventType = "buzz.ledger.transaction.posted"
	EventPurchaseConfirmed    EventType = "buzz.notify.purchase.confirmed"
	EventPaymentSucceeded     EventType = "buzz.notify.payment.succeeded"
	EventPaymentFailed        EventType = "buzz.notify.payment.failed"
	EventSaleAlert            EventType = "buzz.notify.sale.alert"
	EventPayoutRequested      EventType = "buzz.notify.payout.requested"
	EventPayoutApproved       EventType = "buzz.notify.payout.approved"
	EventPayoutRejected       EventType = "buzz.notify.payout.rejected"
	EventPayoutCompleted      EventType = "buzz.notify.payout.completed"
	EventRefundIssued         EventType = "buzz.notify.refund.issued"
	EventNegotiationAccepted  EventType = "buzz.notify.negotiation.accepted"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePayment     AggregateType = "payment"
	AggregateWallet      AggregateType = "wallet"
	AggregatePayout      AggregateType = "payout"
	AggregateNegotiation AggregateType = "negotiation"
)

// OutboxDraft is the payload written to the event_outbox table. Drafts are
// inserted in the same database transaction as the state they describe and
// published to Kafka after commit by the poller, which is how settlement
// side effects fire exactly once without awaiting the notifier inside the
// financial boundary.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
