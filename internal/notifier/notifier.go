package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/projectbuzz/platform/internal/domain"
)

// Notification is a rendered message ready for delivery.
type Notification struct {
	RecipientID uuid.UUID
	Subject     string
	Body        string
}

// Sender delivers rendered notifications. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// builder renders one event type into a notification.
type builder func(p domain.NotificationPayload) Notification

// builders is the dispatch table: every notifiable event type maps to its
// payload builder. Adding an event type means adding one entry here, not a
// branch in a type switch.
var builders = map[domain.EventType]builder{
	domain.EventPurchaseConfirmed: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Purchase confirmed",
			Body:        "Your purchase is complete. Project " + entity(p, "project") + " is now available in your library.",
		}
	},
	domain.EventPaymentSucceeded: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payment received",
			Body:        "We received your payment for order " + entity(p, "payment") + ".",
		}
	},
	domain.EventPaymentFailed: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payment failed",
			Body:        "Your payment for order " + entity(p, "payment") + " did not go through. You can retry from your orders page.",
		}
	},
	domain.EventSaleAlert: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "You made a sale",
			Body:        "Project " + entity(p, "project") + " was just purchased. Your share has been credited to your wallet.",
		}
	},
	domain.EventPayoutRequested: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payout requested",
			Body:        "Your payout request " + entity(p, "payout") + " is pending review.",
		}
	},
	domain.EventPayoutApproved: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payout approved",
			Body:        "Your payout " + entity(p, "payout") + " was approved and is being processed.",
		}
	},
	domain.EventPayoutRejected: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payout rejected",
			Body:        "Your payout " + entity(p, "payout") + " was rejected. The funds remain in your wallet.",
		}
	},
	domain.EventPayoutCompleted: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Payout completed",
			Body:        "Your payout " + entity(p, "payout") + " has been transferred to your bank account.",
		}
	},
	domain.EventRefundIssued: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Refund issued",
			Body:        "A refund was issued for order " + entity(p, "payment") + ".",
		}
	},
	domain.EventNegotiationAccepted: func(p domain.NotificationPayload) Notification {
		return Notification{
			RecipientID: p.RecipientID,
			Subject:     "Offer accepted",
			Body:        "Your offer was accepted. A discount code for negotiation " + entity(p, "negotiation") + " is waiting in your account.",
		}
	},
}

func entity(p domain.NotificationPayload, key string) string {
	if id, ok := p.EntityIDs[key]; ok {
		return id.String()
	}
	return "unknown"
}

// Dispatcher routes raw event payloads through the builder table to a sender.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// Dispatch renders and delivers one event. Events with no builder are not
// notifications (ledger audit events flow through the same topic) and are
// skipped without error.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType domain.EventType, payload []byte) error {
	build, ok := builders[eventType]
	if !ok {
		d.logger.Debug("no notification for event", "event_type", eventType)
		return nil
	}

	var p domain.NotificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode notification payload: %w", err)
	}
	if p.RecipientID == uuid.Nil {
		return fmt.Errorf("notification payload has no recipient")
	}

	n := build(p)
	if err := d.sender.Send(ctx, n); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}

// LogSender writes notifications to the log. Stands in for the mail/push
// integration in environments without one.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info("notification",
		"recipient_id", n.RecipientID,
		"subject", n.Subject,
		"body", n.Body)
	return nil
}
