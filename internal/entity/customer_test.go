package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graniteflow/crm-backend/internal/entity"
)

func TestNewCustomer(t *testing.T) {
	c, err := entity.NewCustomer("Ana Torres", "ana@example.com", "555-123-4567")

	assert.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ana Torres", c.Name)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestNewCustomerRequiresName(t *testing.T) {
	c, err := entity.NewCustomer("", "ana@example.com", "")

	assert.Nil(t, c)
	assert.EqualError(t, err, "name is required")
}

func TestNewCustomerRequiresEmail(t *testing.T) {
	c, err := entity.NewCustomer("Ana Torres", "", "")

	assert.Nil(t, c)
	assert.EqualError(t, err, "email is required")
}
