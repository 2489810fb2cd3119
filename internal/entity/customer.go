package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Customer is a converted lead. GatewayID is the payment provider's customer id
// and is how webhook payloads correlate back to a local record.
type Customer struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	GatewayID string    `json:"gateway_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrEmailAlreadyExists = errors.New("a customer with this email already exists")
)

func NewCustomer(name, email, phone string) (*Customer, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	return &Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id string) (*Customer, error)
	FindByGatewayID(ctx context.Context, gatewayID string) (*Customer, error)
}
