package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

// highValueScoreThreshold splits leads between the two nurture sequences.
const highValueScoreThreshold = 70

type SequenceStep struct {
	Delay    time.Duration
	Template string
}

// The sequences are fixed configuration. The engine never sleeps; each step is
// handed to the queue as a delayed notification and delivery happens there.
var (
	newLeadSequence = []SequenceStep{
		{Delay: 0, Template: "seq_welcome"},
		{Delay: 24 * time.Hour, Template: "seq_why_granite"},
		{Delay: 72 * time.Hour, Template: "seq_portfolio"},
		{Delay: 168 * time.Hour, Template: "seq_check_in"},
	}

	highValueSequence = []SequenceStep{
		{Delay: 0, Template: "seq_vip_welcome"},
		{Delay: 12 * time.Hour, Template: "seq_design_consult"},
		{Delay: 48 * time.Hour, Template: "seq_premium_portfolio"},
	}

	retentionSequence = []SequenceStep{
		{Delay: 180 * 24 * time.Hour, Template: "ret_six_month_check"},
		{Delay: 365 * 24 * time.Hour, Template: "ret_anniversary"},
		{Delay: 730 * 24 * time.Hour, Template: "ret_refresh_offer"},
		{Delay: 60 * 24 * time.Hour, Template: "ret_care_tips"},
	}
)

type SequenceScheduler struct {
	Producer  queue.NotificationProducerInterface
	Customers entity.CustomerRepositoryInterface
}

func NewSequenceScheduler(
	producer queue.NotificationProducerInterface,
	customers entity.CustomerRepositoryInterface,
) *SequenceScheduler {
	return &SequenceScheduler{
		Producer:  producer,
		Customers: customers,
	}
}

// StartEmailSequence enrolls a lead in the nurture sequence matching its
// score: above the high-value threshold gets the shorter premium track.
func (s *SequenceScheduler) StartEmailSequence(ctx context.Context, lead *entity.Lead) error {
	if lead.Email == "" {
		return &DomainError{Code: "NO_EMAIL", Message: "lead has no email address"}
	}

	sequence := newLeadSequence
	sequenceName := "new_lead"
	if lead.Score > highValueScoreThreshold {
		sequence = highValueSequence
		sequenceName = "high_value"
	}

	for _, step := range sequence {
		err := s.Producer.PublishDelayed(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       lead.Email,
			Template: step.Template,
			LeadID:   lead.ID,
			Data: map[string]string{
				"name": lead.Name,
			},
		}, step.Delay)
		if err != nil {
			return &TechnicalError{
				Code:    "QUEUE_ERROR",
				Message: "failed to schedule sequence step " + step.Template + ": " + err.Error(),
			}
		}
	}

	log.Printf("[SEQUENCE] lead %s enrolled in %s sequence (%d steps)", lead.ID, sequenceName, len(sequence))
	return nil
}

// StartRetentionSequence schedules the four fixed retention touches for a
// converted customer, regardless of any score.
func (s *SequenceScheduler) StartRetentionSequence(ctx context.Context, customerID string) error {
	customer, err := s.Customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, entity.ErrCustomerNotFound) {
			return &DomainError{Code: "CUSTOMER_NOT_FOUND", Message: "customer " + customerID + " not found"}
		}
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load customer: " + err.Error()}
	}

	for _, step := range retentionSequence {
		err := s.Producer.PublishDelayed(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       customer.Email,
			Template: step.Template,
			Data: map[string]string{
				"name": customer.Name,
			},
		}, step.Delay)
		if err != nil {
			return &TechnicalError{
				Code:    "QUEUE_ERROR",
				Message: "failed to schedule retention step " + step.Template + ": " + err.Error(),
			}
		}
	}

	log.Printf("[SEQUENCE] customer %s enrolled in retention sequence", customerID)
	return nil
}
