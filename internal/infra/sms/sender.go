package sms

import (
	"log"

	"github.com/graniteflow/crm-backend/internal/infra/integration/smsgw"
)

// Sender wraps the gateway client with the tolerant semantics SMS deserves:
// missing data or a gateway failure is logged, never escalated.
type Sender struct {
	client *smsgw.Client
}

func NewSender(client *smsgw.Client) *Sender {
	return &Sender{
		client: client,
	}
}

func (s *Sender) Send(to, message string) error {
	if to == "" || message == "" {
		log.Printf("[SMS] incomplete send request (to=%q), skipping", to)
		return nil
	}

	err := s.client.SendMessage(smsgw.SendMessageInput{
		PhoneNumber: to,
		Message:     message,
	})
	if err != nil {
		log.Printf("[SMS] send failed for %s: %v", to, err)
		return nil
	}

	return nil
}
