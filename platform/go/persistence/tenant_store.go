package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troveworks/trove-crm/platform/go/tenant"
)

// Tenant mirrors a row of the tenant registry.
type Tenant struct {
	TenantID  uuid.UUID `json:"tenantId"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TenantStore provides access to the tenant registry.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore returns a store instance bound to the shared pool.
func NewTenantStore(ctx context.Context, pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &TenantStore{pool: pool}, nil
}

// CreateTenant registers a tenant. Duplicate slugs yield ErrTenantConflict.
func (s *TenantStore) CreateTenant(ctx context.Context, id uuid.UUID, slug, name string) (Tenant, error) {
	if id == uuid.Nil {
		return Tenant{}, errors.New("tenant id is required")
	}
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return Tenant{}, errors.New("tenant slug is required")
	}
	if strings.TrimSpace(name) == "" {
		return Tenant{}, errors.New("tenant name is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO tenants (tenant_id, slug, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING tenant_id, slug, name, created_at, updated_at
	`, id, slug, strings.TrimSpace(name))

	record, err := scanTenant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Tenant{}, ErrTenantConflict
		}
		return Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}

	return record, nil
}

// GetTenant loads one tenant by id.
func (s *TenantStore) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT tenant_id, slug, name, created_at, updated_at
		FROM tenants
		WHERE tenant_id = $1
	`, id)

	record, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrTenantNotFound
		}
		return Tenant{}, fmt.Errorf("load tenant: %w", err)
	}

	return record, nil
}

// ResolveTenant implements tenant.Resolver for the HTTP middleware.
func (s *TenantStore) ResolveTenant(ctx context.Context, id uuid.UUID) (tenant.Identity, error) {
	record, err := s.GetTenant(ctx, id)
	if err != nil {
		return tenant.Identity{}, err
	}

	return tenant.Identity{TenantID: record.TenantID, Slug: record.Slug, Name: record.Name}, nil
}

func scanTenant(scanner rowScanner) (Tenant, error) {
	var record Tenant
	if err := scanner.Scan(&record.TenantID, &record.Slug, &record.Name, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return Tenant{}, err
	}
	return record, nil
}
