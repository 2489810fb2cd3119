package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
	"github.com/graniteflow/crm-backend/internal/usecase"
)

// maxWebhookBodyBytes caps the raw payload read for signature verification.
const maxWebhookBodyBytes = 65536

type EventProcessor interface {
	Execute(ctx context.Context, ev usecase.PaymentEvent) (*usecase.HandlerOutcome, error)
}

type WebhookHandler struct {
	Processor     EventProcessor
	SigningSecret string
	Environment   string
}

func NewWebhookHandler(processor EventProcessor, signingSecret, environment string) *WebhookHandler {
	return &WebhookHandler{
		Processor:     processor,
		SigningSecret: signingSecret,
		Environment:   environment,
	}
}

// Handle verifies the provider signature over the raw body before touching
// any business field, then hands the mapped event to the processor. A handler
// failure inside the processor still acknowledges the delivery; only a
// dispatch-level failure yields a 500.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "Webhook Error: failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.SigningSecret)
	if err != nil {
		middleware.RecordWebhookEvent("unknown", "signature_rejected")
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	paymentEvent, err := mapStripeEvent(event)
	if err != nil {
		log.Printf("[WEBHOOK] failed to map event %s (%s): %v", event.ID, event.Type, err)
		writeWebhookFailure(w)
		return
	}

	outcome, err := h.Processor.Execute(r.Context(), paymentEvent)
	if err != nil {
		log.Printf("[WEBHOOK] dispatch failed for event %s: %v", event.ID, err)
		middleware.RecordWebhookEvent(event.Type, "dispatch_failed")
		writeWebhookFailure(w)
		return
	}

	middleware.RecordWebhookEvent(event.Type, outcomeLabel(outcome))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

func (h *WebhookHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message":     "Stripe webhook endpoint is reachable",
		"timestamp":   time.Now().Format(time.RFC3339),
		"environment": h.Environment,
	})
}

func writeWebhookFailure(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "Webhook processing failed"})
}

func outcomeLabel(outcome *usecase.HandlerOutcome) string {
	switch {
	case outcome.Err != nil:
		return "handler_error"
	case outcome.Applied:
		return "applied"
	default:
		return "skipped"
	}
}

// mapStripeEvent flattens the verified Stripe payload into the processor's
// provider-neutral event. Payload shapes we do not model map through with the
// type only and fall into the processor's default branch.
func mapStripeEvent(event stripe.Event) (usecase.PaymentEvent, error) {
	out := usecase.PaymentEvent{
		ID:   event.ID,
		Type: usecase.EventType(event.Type),
	}

	switch usecase.EventType(event.Type) {
	case usecase.EventPaymentSucceeded, usecase.EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return out, err
		}
		out.PaymentID = pi.ID
		out.EstimateID = pi.Metadata["estimateId"]
		out.PayerID = pi.Metadata["customerId"]
		if out.PayerID == "" && pi.Customer != nil {
			out.PayerID = pi.Customer.ID
		}
		out.PayerEmail = pi.ReceiptEmail
		if usecase.EventType(event.Type) == usecase.EventPaymentSucceeded {
			out.AmountCents = pi.AmountReceived
		} else {
			out.AmountCents = pi.Amount
			if pi.LastPaymentError != nil {
				out.FailureReason = pi.LastPaymentError.Msg
			}
		}

	case usecase.EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return out, err
		}
		out.InvoiceID = inv.Metadata["invoiceId"]
		if out.InvoiceID == "" {
			out.InvoiceID = inv.ID
		}
		if inv.Customer != nil {
			out.PayerID = inv.Customer.ID
		}
		out.PayerEmail = inv.CustomerEmail
		out.AmountCents = inv.AmountPaid

	case usecase.EventDisputeCreated:
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return out, err
		}
		out.AmountCents = dispute.Amount
		out.DisputeReason = string(dispute.Reason)
		if dispute.Charge != nil {
			out.PayerID = dispute.Charge.ID
		}
	}

	return out, nil
}
