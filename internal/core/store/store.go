// Package store persists named mappings.
//
// Definitions are stored as JSON documents keyed by name; a Put with an
// existing name replaces the definition and keeps the original MappingID.
// Every mapping is compiled before it is written, so the store never holds a
// rule set the engine would reject.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/keyshift/internal/core/db"
	"github.com/solatis/keyshift/internal/json"
	"github.com/solatis/keyshift/internal/rules"
	"github.com/solatis/keyshift/internal/types"
)

// Queries is the subset of *db.Queries the store needs.
type Queries interface {
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
	Get(ctx context.Context, name string, dest any, args ...any) error
	Select(ctx context.Context, name string, dest any, args ...any) error
}

var _ Queries = (*db.Queries)(nil)

// StoredMapping is a mapping with its bookkeeping columns.
type StoredMapping struct {
	types.Mapping
	CreatedAt time.Time
	UpdatedAt time.Time
}

type mappingRow struct {
	ID         string    `db:"mapping_id"`
	Name       string    `db:"name"`
	Definition string    `db:"definition"`
	RuleCount  int       `db:"rule_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// MappingStore reads and writes mappings through named queries.
type MappingStore struct {
	queries Queries
	now     func() time.Time
}

func NewMappingStore(queries Queries) *MappingStore {
	return &MappingStore{
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Put validates and stores mapping under its name and returns the stored ID.
func (s *MappingStore) Put(ctx context.Context, mapping *types.Mapping) (types.MappingID, error) {
	if mapping.Name == "" {
		return "", types.ErrEmptyMappingName
	}
	if _, err := rules.Compile(mapping); err != nil {
		return "", fmt.Errorf("invalid mapping %q: %w", mapping.Name, err)
	}

	id := mapping.ID
	if id == "" {
		id = types.NewMappingID()
	}

	// The ID lives in its own column; keep the stored definition ID-free
	definition := *mapping
	definition.ID = ""
	encoded, err := json.Marshal(&definition)
	if err != nil {
		return "", fmt.Errorf("failed to encode mapping %q: %w", mapping.Name, err)
	}

	now := s.now()
	if _, err := s.queries.Exec(ctx, "upsert-mapping", string(id), mapping.Name, string(encoded), len(mapping.Rules), now, now); err != nil {
		return "", fmt.Errorf("failed to store mapping %q: %w", mapping.Name, err)
	}

	stored, err := s.Get(ctx, mapping.Name)
	if err != nil {
		return "", err
	}
	return stored.ID, nil
}

// Get loads the mapping stored under name.
// Returns types.ErrMappingNotFound when no such mapping exists.
func (s *MappingStore) Get(ctx context.Context, name string) (*StoredMapping, error) {
	var row mappingRow
	err := s.queries.Get(ctx, "get-mapping-by-name", &row, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrMappingNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping %q: %w", name, err)
	}
	return row.decode()
}

// List returns every stored mapping ordered by name.
func (s *MappingStore) List(ctx context.Context) ([]*StoredMapping, error) {
	var rows []mappingRow
	if err := s.queries.Select(ctx, "list-mappings", &rows); err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}

	mappings := make([]*StoredMapping, 0, len(rows))
	for _, row := range rows {
		m, err := row.decode()
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// Delete removes the mapping stored under name.
// Returns types.ErrMappingNotFound when nothing was deleted.
func (s *MappingStore) Delete(ctx context.Context, name string) error {
	res, err := s.queries.Exec(ctx, "delete-mapping", name)
	if err != nil {
		return fmt.Errorf("failed to delete mapping %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete mapping %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrMappingNotFound, name)
	}
	return nil
}

func (r mappingRow) decode() (*StoredMapping, error) {
	var mapping types.Mapping
	if err := json.Unmarshal([]byte(r.Definition), &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode mapping %q: %w", r.Name, err)
	}
	mapping.ID = types.MappingID(r.ID)
	mapping.Name = r.Name
	return &StoredMapping{
		Mapping:   mapping,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
