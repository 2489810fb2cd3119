package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/integration/ledger"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

const providerStripe = "stripe"

// WorkflowPaymentReceived is the workflow event fired after a successful
// payment on an estimate.
const WorkflowPaymentReceived = "payment_received"

type EventType string

const (
	EventPaymentSucceeded    EventType = "payment_intent.succeeded"
	EventPaymentFailed       EventType = "payment_intent.payment_failed"
	EventInvoicePaid         EventType = "invoice.payment_succeeded"
	EventDisputeCreated      EventType = "charge.dispute.created"
	EventSubscriptionCreated EventType = "customer.subscription.created"
)

// PaymentEvent is the provider-neutral view of a verified webhook delivery.
// Fields are populated per event type; absent correlation ids are a soft
// condition, never an error.
type PaymentEvent struct {
	ID            string
	Type          EventType
	EstimateID    string // correlation key from provider metadata
	InvoiceID     string
	PayerID       string // provider customer id
	PayerEmail    string
	PaymentID     string
	AmountCents   int64
	FailureReason string
	DisputeReason string
}

// HandlerOutcome is the typed result of dispatching one event. Applied is true
// when a handler ran its side effects; Skipped carries the reason when it did
// not; Err records a handler failure the dispatcher chose to swallow. The
// caller still acknowledges the delivery in all three cases.
type HandlerOutcome struct {
	EventType EventType
	Applied   bool
	Skipped   string
	Err       error
}

type ProcessEventUseCase struct {
	Events      entity.WebhookEventRepositoryInterface
	Estimates   entity.EstimateRepositoryInterface
	Invoices    entity.InvoiceRepositoryInterface
	Customers   entity.CustomerRepositoryInterface
	Ledger      LedgerService
	Producer    queue.NotificationProducerInterface
	Workflow    WorkflowTrigger
	OpsEmail    string
	FrontendURL string
}

func NewProcessEventUseCase(
	events entity.WebhookEventRepositoryInterface,
	estimates entity.EstimateRepositoryInterface,
	invoices entity.InvoiceRepositoryInterface,
	customers entity.CustomerRepositoryInterface,
	ledgerSvc LedgerService,
	producer queue.NotificationProducerInterface,
	workflow WorkflowTrigger,
	opsEmail string,
	frontendURL string,
) *ProcessEventUseCase {
	return &ProcessEventUseCase{
		Events:      events,
		Estimates:   estimates,
		Invoices:    invoices,
		Customers:   customers,
		Ledger:      ledgerSvc,
		Producer:    producer,
		Workflow:    workflow,
		OpsEmail:    opsEmail,
		FrontendURL: frontendURL,
	}
}

// Execute dispatches a verified event to exactly one handler. Duplicate
// deliveries (same provider event id) short-circuit before any side effect.
// Handler failures are recorded in the outcome and swallowed: the provider
// cannot fix a domain failure by retrying, so the delivery is still
// acknowledged. The error return is reserved for dispatch-level failures.
func (uc *ProcessEventUseCase) Execute(ctx context.Context, ev PaymentEvent) (*HandlerOutcome, error) {
	if ev.ID != "" {
		already, err := uc.Events.MarkProcessed(ctx, providerStripe, ev.ID, string(ev.Type))
		if err != nil {
			// Dedup store trouble must not block payment processing; the
			// handler side effects stay best-effort idempotent anyway.
			log.Printf("[WEBHOOK] idempotency store unavailable, processing anyway: %v", err)
		} else if already {
			log.Printf("[WEBHOOK] duplicate delivery of %s (%s), skipping", ev.ID, ev.Type)
			return &HandlerOutcome{EventType: ev.Type, Skipped: "duplicate delivery"}, nil
		}
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		return uc.handlePaymentSucceeded(ctx, ev), nil

	case EventPaymentFailed:
		return uc.handlePaymentFailed(ctx, ev), nil

	case EventInvoicePaid:
		return uc.handleInvoicePaid(ctx, ev), nil

	case EventDisputeCreated:
		return uc.handleDisputeCreated(ctx, ev), nil

	case EventSubscriptionCreated:
		// Present in dispatch; acknowledged without further behavior.
		log.Printf("[WEBHOOK] subscription created (%s), acknowledged", ev.ID)
		return &HandlerOutcome{EventType: ev.Type, Applied: true}, nil

	default:
		// Unknown types are acknowledged so the provider does not retry-storm.
		log.Printf("[WEBHOOK] unhandled event type %q (%s), acknowledging", ev.Type, ev.ID)
		return &HandlerOutcome{EventType: ev.Type, Skipped: "unhandled event type"}, nil
	}
}

// handlePaymentSucceeded runs the fixed side-effect order: estimate status,
// ledger sync, payer confirmation, workflow trigger. A failure in a later step
// never rolls back an earlier one.
func (uc *ProcessEventUseCase) handlePaymentSucceeded(ctx context.Context, ev PaymentEvent) *HandlerOutcome {
	outcome := &HandlerOutcome{EventType: ev.Type, Applied: true}
	amount := float64(ev.AmountCents) / 100
	now := time.Now()

	if ev.EstimateID != "" {
		err := uc.Estimates.MarkPaid(ctx, ev.EstimateID, ev.PaymentID, amount, now)
		if err != nil && !errors.Is(err, entity.ErrEstimateNotFound) {
			log.Printf("[WEBHOOK] failed to mark estimate %s paid: %v", ev.EstimateID, err)
			outcome.Err = err
		}
	}

	err := uc.Ledger.SyncPayment(ctx, ledger.PaymentRecord{
		EstimateID:  ev.EstimateID,
		PaymentID:   ev.PaymentID,
		CustomerRef: ev.PayerID,
		Amount:      amount,
		Currency:    "usd",
		PaidAt:      now,
	})
	if err != nil {
		log.Printf("[WEBHOOK] ledger sync failed for payment %s: %v", ev.PaymentID, err)
		outcome.Err = err
	}

	if to := uc.resolvePayerEmail(ctx, ev); to != "" {
		err := uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       to,
			Template: "payment_confirmation",
			Data: map[string]string{
				"amount":     fmt.Sprintf("%.2f", amount),
				"payment_id": ev.PaymentID,
			},
		})
		if err != nil {
			log.Printf("[WEBHOOK] payment confirmation failed for %s: %v", ev.PaymentID, err)
			outcome.Err = err
		}
	}

	if ev.EstimateID != "" {
		if err := uc.Workflow.Trigger(ctx, ev.EstimateID, WorkflowPaymentReceived); err != nil {
			log.Printf("[WEBHOOK] workflow trigger failed for estimate %s: %v", ev.EstimateID, err)
			outcome.Err = err
		}
	}

	log.Printf("[WEBHOOK] payment %s processed (estimate=%s amount=%.2f)", ev.PaymentID, ev.EstimateID, amount)
	return outcome
}

func (uc *ProcessEventUseCase) handlePaymentFailed(ctx context.Context, ev PaymentEvent) *HandlerOutcome {
	outcome := &HandlerOutcome{EventType: ev.Type, Applied: true}

	if ev.EstimateID != "" {
		err := uc.Estimates.MarkPaymentFailed(ctx, ev.EstimateID, ev.FailureReason)
		if err != nil && !errors.Is(err, entity.ErrEstimateNotFound) {
			log.Printf("[WEBHOOK] failed to mark estimate %s payment_failed: %v", ev.EstimateID, err)
			outcome.Err = err
		}
	}

	if to := uc.resolvePayerEmail(ctx, ev); to != "" {
		err := uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       to,
			Template: "payment_failed",
			Data: map[string]string{
				"reason":    ev.FailureReason,
				"retry_url": uc.FrontendURL + "/pay/" + ev.EstimateID,
			},
		})
		if err != nil {
			log.Printf("[WEBHOOK] payment failure notice failed for %s: %v", ev.PaymentID, err)
			outcome.Err = err
		}
	}

	err := uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       uc.OpsEmail,
		Template: "internal_payment_failed",
		Data: map[string]string{
			"estimate_id": ev.EstimateID,
			"payer":       ev.PayerID,
			"reason":      ev.FailureReason,
		},
	})
	if err != nil {
		log.Printf("[WEBHOOK] ops alert failed for %s: %v", ev.PaymentID, err)
		outcome.Err = err
	}

	return outcome
}

func (uc *ProcessEventUseCase) handleInvoicePaid(ctx context.Context, ev PaymentEvent) *HandlerOutcome {
	outcome := &HandlerOutcome{EventType: ev.Type, Applied: true}
	amount := float64(ev.AmountCents) / 100
	now := time.Now()

	if ev.InvoiceID != "" {
		err := uc.Invoices.MarkPaid(ctx, ev.InvoiceID, now)
		if err != nil && !errors.Is(err, entity.ErrInvoiceNotFound) {
			log.Printf("[WEBHOOK] failed to mark invoice %s paid: %v", ev.InvoiceID, err)
			outcome.Err = err
		}
	}

	err := uc.Ledger.SyncPayment(ctx, ledger.PaymentRecord{
		InvoiceID:   ev.InvoiceID,
		CustomerRef: ev.PayerID,
		Amount:      amount,
		Currency:    "usd",
		PaidAt:      now,
	})
	if err != nil {
		log.Printf("[WEBHOOK] ledger sync failed for invoice %s: %v", ev.InvoiceID, err)
		outcome.Err = err
	}

	if to := uc.resolvePayerEmail(ctx, ev); to != "" {
		err := uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       to,
			Template: "invoice_receipt",
			Data: map[string]string{
				"invoice_id": ev.InvoiceID,
				"amount":     fmt.Sprintf("%.2f", amount),
			},
		})
		if err != nil {
			log.Printf("[WEBHOOK] receipt failed for invoice %s: %v", ev.InvoiceID, err)
			outcome.Err = err
		}
	}

	return outcome
}

func (uc *ProcessEventUseCase) handleDisputeCreated(ctx context.Context, ev PaymentEvent) *HandlerOutcome {
	outcome := &HandlerOutcome{EventType: ev.Type, Applied: true}
	amount := float64(ev.AmountCents) / 100

	err := uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       uc.OpsEmail,
		Template: "dispute_alert",
		Data: map[string]string{
			"amount": fmt.Sprintf("%.2f", amount),
			"reason": ev.DisputeReason,
			"payer":  ev.PayerID,
		},
	})
	if err != nil {
		log.Printf("[WEBHOOK] dispute alert failed for %s: %v", ev.ID, err)
		outcome.Err = err
	}

	// Logged for follow-up even when the alert goes through.
	log.Printf("[WEBHOOK] DISPUTE created: amount=%.2f reason=%q payer=%s event=%s",
		amount, ev.DisputeReason, ev.PayerID, ev.ID)

	return outcome
}

// resolvePayerEmail prefers the email carried on the event and falls back to
// the local customer record matched by the provider customer id. An empty
// result means the notification is skipped, not failed.
func (uc *ProcessEventUseCase) resolvePayerEmail(ctx context.Context, ev PaymentEvent) string {
	if ev.PayerEmail != "" {
		return ev.PayerEmail
	}
	if ev.PayerID == "" {
		return ""
	}
	customer, err := uc.Customers.FindByGatewayID(ctx, ev.PayerID)
	if err != nil {
		if !errors.Is(err, entity.ErrCustomerNotFound) {
			log.Printf("[WEBHOOK] customer lookup failed for %s: %v", ev.PayerID, err)
		}
		return ""
	}
	return customer.Email
}
