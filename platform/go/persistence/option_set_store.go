package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OptionSetStore provides PostgreSQL-backed access to tenant-scoped controlled vocabularies.
type OptionSetStore struct {
	pool *pgxpool.Pool
}

// NewOptionSetStore returns a store instance bound to the shared pool.
func NewOptionSetStore(ctx context.Context, pool *pgxpool.Pool) (*OptionSetStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &OptionSetStore{pool: pool}, nil
}

// CreateOptionSetParams defines the payload required to register a new option set.
type CreateOptionSetParams struct {
	OptionSetID uuid.UUID
	TenantID    uuid.UUID
	Name        string
	EntityType  *EntityType
}

// CreateOptionSet registers a named option set for a tenant. A duplicate
// (tenant, name) pair yields ErrOptionSetConflict.
func (s *OptionSetStore) CreateOptionSet(ctx context.Context, params CreateOptionSetParams) (OptionSet, error) {
	if params.OptionSetID == uuid.Nil {
		return OptionSet{}, errors.New("option set id is required")
	}
	if params.TenantID == uuid.Nil {
		return OptionSet{}, errors.New("tenant id is required")
	}
	if strings.TrimSpace(params.Name) == "" {
		return OptionSet{}, errors.New("option set name is required")
	}

	var entityType *string
	if params.EntityType != nil {
		et := string(*params.EntityType)
		entityType = &et
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO option_sets (option_set_id, tenant_id, name, entity_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING option_set_id, tenant_id, name, entity_type, created_at, updated_at
	`, params.OptionSetID, params.TenantID, strings.TrimSpace(params.Name), entityType)

	set, err := scanOptionSet(row)
	if err != nil {
		if isUniqueViolation(err) {
			return OptionSet{}, ErrOptionSetConflict
		}
		return OptionSet{}, fmt.Errorf("insert option set: %w", err)
	}

	return set, nil
}

// GetOptionSet loads a tenant's named option set with every option (active or
// not) ordered by sort order ascending. Callers filter active options as needed.
func (s *OptionSetStore) GetOptionSet(ctx context.Context, tenantID uuid.UUID, name string) (OptionSetWithOptions, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT option_set_id, tenant_id, name, entity_type, created_at, updated_at
		FROM option_sets
		WHERE tenant_id = $1 AND name = $2
	`, tenantID, name)

	set, err := scanOptionSet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OptionSetWithOptions{}, ErrOptionSetNotFound
		}
		return OptionSetWithOptions{}, fmt.Errorf("load option set: %w", err)
	}

	options, err := s.loadOptions(ctx, set.ID)
	if err != nil {
		return OptionSetWithOptions{}, err
	}

	return OptionSetWithOptions{OptionSet: set, Options: options}, nil
}

// GetActiveOptionKeys reduces a named set to its active option keys in sort
// order. A missing set is not an error: it yields an empty list, which callers
// surface as "no valid values" during validation.
func (s *OptionSetStore) GetActiveOptionKeys(ctx context.Context, tenantID uuid.UUID, name string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.option_key
		FROM option_set_options o
		JOIN option_sets s ON s.option_set_id = o.option_set_id
		WHERE s.tenant_id = $1 AND s.name = $2 AND o.is_active = TRUE
		ORDER BY o.sort_order ASC, o.option_key ASC
	`, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("load active option keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active option keys: %w", err)
	}

	return keys, nil
}

// ListOptionSets returns every option set owned by the tenant, options included.
func (s *OptionSetStore) ListOptionSets(ctx context.Context, tenantID uuid.UUID) ([]OptionSetWithOptions, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT option_set_id, tenant_id, name, entity_type, created_at, updated_at
		FROM option_sets
		WHERE tenant_id = $1
		ORDER BY name ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list option sets: %w", err)
	}
	defer rows.Close()

	var sets []OptionSetWithOptions
	for rows.Next() {
		set, scanErr := scanOptionSet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sets = append(sets, OptionSetWithOptions{OptionSet: set})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option sets: %w", err)
	}

	for i := range sets {
		options, optErr := s.loadOptions(ctx, sets[i].ID)
		if optErr != nil {
			return nil, optErr
		}
		sets[i].Options = options
	}

	return sets, nil
}

// AddOptionParams defines the payload required to append an option to a set.
type AddOptionParams struct {
	OptionID    uuid.UUID
	OptionKey   string
	Label       string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// AddOption appends an option to a tenant's set. The parent set must belong to
// the tenant, otherwise the call resolves as not-found.
func (s *OptionSetStore) AddOption(ctx context.Context, tenantID, optionSetID uuid.UUID, params AddOptionParams) (OptionSetOption, error) {
	if params.OptionID == uuid.Nil {
		return OptionSetOption{}, errors.New("option id is required")
	}
	if strings.TrimSpace(params.OptionKey) == "" {
		return OptionSetOption{}, errors.New("option key is required")
	}
	if strings.TrimSpace(params.Label) == "" {
		return OptionSetOption{}, errors.New("option label is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return OptionSetOption{}, fmt.Errorf("begin add option tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.lockOwnedSet(ctx, tx, tenantID, optionSetID); err != nil {
		return OptionSetOption{}, err
	}

	sortOrder := 0
	if params.SortOrder != nil {
		sortOrder = *params.SortOrder
	} else {
		// append to the end of the set by default
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(sort_order) + 1, 0)
			FROM option_set_options
			WHERE option_set_id = $1
		`, optionSetID).Scan(&sortOrder); err != nil {
			return OptionSetOption{}, fmt.Errorf("next sort order: %w", err)
		}
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO option_set_options (
			option_id, option_set_id, option_key, label, description, sort_order, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		RETURNING option_id, option_set_id, option_key, label, description, sort_order, is_active, created_at, updated_at
	`, params.OptionID, optionSetID, strings.TrimSpace(params.OptionKey), strings.TrimSpace(params.Label), params.Description, sortOrder, isActive)

	option, err := scanOption(row)
	if err != nil {
		if isUniqueViolation(err) {
			return OptionSetOption{}, ErrOptionConflict
		}
		return OptionSetOption{}, fmt.Errorf("insert option: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return OptionSetOption{}, fmt.Errorf("commit add option tx: %w", err)
	}

	return option, nil
}

// UpdateOptionParams defines the patchable attributes of an option. The option
// key is the stored record value and therefore immutable.
type UpdateOptionParams struct {
	Label       *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

// UpdateOption applies a partial update to one option of a tenant's set.
func (s *OptionSetStore) UpdateOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID, params UpdateOptionParams) (OptionSetOption, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return OptionSetOption{}, fmt.Errorf("begin update option tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.lockOwnedSet(ctx, tx, tenantID, optionSetID); err != nil {
		return OptionSetOption{}, err
	}

	row := tx.QueryRow(ctx, `
		SELECT option_id, option_set_id, option_key, label, description, sort_order, is_active, created_at, updated_at
		FROM option_set_options
		WHERE option_id = $1 AND option_set_id = $2
		FOR UPDATE
	`, optionID, optionSetID)

	current, err := scanOption(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OptionSetOption{}, ErrOptionNotFound
		}
		return OptionSetOption{}, fmt.Errorf("load option: %w", err)
	}

	label := current.Label
	if params.Label != nil {
		trimmed := strings.TrimSpace(*params.Label)
		if trimmed == "" {
			return OptionSetOption{}, errors.New("option label is required")
		}
		label = trimmed
	}

	description := current.Description
	if params.Description != nil {
		description = params.Description
	}

	sortOrder := current.SortOrder
	if params.SortOrder != nil {
		sortOrder = *params.SortOrder
	}

	isActive := current.IsActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	row = tx.QueryRow(ctx, `
		UPDATE option_set_options
		SET label = $3,
		    description = $4,
		    sort_order = $5,
		    is_active = $6,
		    updated_at = NOW()
		WHERE option_id = $1 AND option_set_id = $2
		RETURNING option_id, option_set_id, option_key, label, description, sort_order, is_active, created_at, updated_at
	`, optionID, optionSetID, label, description, sortOrder, isActive)

	option, err := scanOption(row)
	if err != nil {
		return OptionSetOption{}, fmt.Errorf("update option: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return OptionSetOption{}, fmt.Errorf("commit update option tx: %w", err)
	}

	return option, nil
}

// ArchiveOption deactivates an option. Archiving an already-inactive option is
// a no-op success; the row is never removed so stored values keep resolving.
func (s *OptionSetStore) ArchiveOption(ctx context.Context, tenantID, optionSetID, optionID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE option_set_options o
		SET is_active = FALSE,
		    updated_at = NOW()
		FROM option_sets s
		WHERE o.option_id = $1
		  AND o.option_set_id = $2
		  AND s.option_set_id = o.option_set_id
		  AND s.tenant_id = $3
	`, optionID, optionSetID, tenantID)
	if err != nil {
		return fmt.Errorf("archive option: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOptionNotFound
	}

	return nil
}

// lockOwnedSet verifies the set belongs to the tenant and locks it for the tx.
// Rows owned by other tenants resolve as not-found.
func (s *OptionSetStore) lockOwnedSet(ctx context.Context, tx pgx.Tx, tenantID, optionSetID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT option_set_id
		FROM option_sets
		WHERE option_set_id = $1 AND tenant_id = $2
		FOR UPDATE
	`, optionSetID, tenantID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOptionSetNotFound
		}
		return fmt.Errorf("check option set ownership: %w", err)
	}

	return nil
}

func (s *OptionSetStore) loadOptions(ctx context.Context, optionSetID uuid.UUID) ([]OptionSetOption, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT option_id, option_set_id, option_key, label, description, sort_order, is_active, created_at, updated_at
		FROM option_set_options
		WHERE option_set_id = $1
		ORDER BY sort_order ASC, option_key ASC
	`, optionSetID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	options := []OptionSetOption{}
	for rows.Next() {
		option, scanErr := scanOption(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		options = append(options, option)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}

	return options, nil
}

func scanOptionSet(scanner rowScanner) (OptionSet, error) {
	var (
		id         uuid.UUID
		tenantID   uuid.UUID
		name       string
		entityType pgtype.Text
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := scanner.Scan(&id, &tenantID, &name, &entityType, &createdAt, &updatedAt); err != nil {
		return OptionSet{}, err
	}

	var entityTypePtr *EntityType
	if entityType.Valid {
		et := EntityType(entityType.String)
		entityTypePtr = &et
	}

	return OptionSet{
		ID:         id,
		TenantID:   tenantID,
		Name:       name,
		EntityType: entityTypePtr,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func scanOption(scanner rowScanner) (OptionSetOption, error) {
	var (
		id          uuid.UUID
		optionSetID uuid.UUID
		optionKey   string
		label       string
		description pgtype.Text
		sortOrder   int
		isActive    bool
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := scanner.Scan(&id, &optionSetID, &optionKey, &label, &description, &sortOrder, &isActive, &createdAt, &updatedAt); err != nil {
		return OptionSetOption{}, err
	}

	var descriptionPtr *string
	if description.Valid {
		d := description.String
		descriptionPtr = &d
	}

	return OptionSetOption{
		ID:          id,
		OptionSetID: optionSetID,
		OptionKey:   optionKey,
		Label:       label,
		Description: descriptionPtr,
		SortOrder:   sortOrder,
		IsActive:    isActive,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
