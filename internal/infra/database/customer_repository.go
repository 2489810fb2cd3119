package database

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/graniteflow/crm-backend/internal/entity"
)

type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO customers (id, lead_id, name, email, phone, address, city, state, zip_code, gateway_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		nullString(c.LeadID),
		c.Name,
		c.Email,
		nullString(c.Phone),
		nullString(c.Address),
		nullString(c.City),
		nullString(c.State),
		nullString(c.ZipCode),
		nullString(c.GatewayID),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return entity.ErrEmailAlreadyExists
			}
		}

		log.Printf("[DB] customer insert failed: %v", err)
		return err
	}

	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *CustomerRepository) FindByGatewayID(ctx context.Context, gatewayID string) (*entity.Customer, error) {
	return r.findOne(ctx, `WHERE gateway_id = $1`, gatewayID)
}

func (r *CustomerRepository) findOne(ctx context.Context, where string, arg any) (*entity.Customer, error) {
	query := `
		SELECT id, COALESCE(lead_id, ''), name, email, COALESCE(phone, ''),
			COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''),
			COALESCE(zip_code, ''), COALESCE(gateway_id, ''), created_at, updated_at
		FROM customers ` + where

	var c entity.Customer
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.LeadID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.GatewayID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrCustomerNotFound
		}
		return nil, err
	}

	return &c, nil
}
