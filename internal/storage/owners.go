package storage

import (
	"context"
	"fmt"
	"strings"

	"homeledger/internal/core"
)

const ownerColumns = `id, system_key, display_name, sort_order, created_at, updated_at`

func (r *SQLiteRepository) CreateOwner(ctx context.Context, o core.Owner) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.SystemKey, o.DisplayName, o.SortOrder, formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create owner: %w", classify("owners", err))
	}
	return nil
}

// SeedOwners inserts each owner unless one with the same system key exists.
// It returns the number of owners inserted.
func (r *SQLiteRepository) SeedOwners(ctx context.Context, owners []core.Owner) (int, error) {
	inserted := 0
	for _, o := range owners {
		res, err := r.q.ExecContext(ctx, `
			INSERT INTO owners (`+ownerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (system_key) DO NOTHING`,
			o.ID, o.SystemKey, o.DisplayName, o.SortOrder, formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
		if err != nil {
			return inserted, fmt.Errorf("seed owner %s: %w", o.SystemKey, classify("owners", err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *SQLiteRepository) GetOwner(ctx context.Context, id string) (core.Owner, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id)
	o, err := scanOwner(row)
	if err != nil {
		return core.Owner{}, fmt.Errorf("get owner %s: %w", id, classify("owners", err))
	}
	return o, nil
}

func (r *SQLiteRepository) GetOwnerBySystemKey(ctx context.Context, key string) (core.Owner, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE system_key = ?`, key)
	o, err := scanOwner(row)
	if err != nil {
		return core.Owner{}, fmt.Errorf("get owner by key %s: %w", key, classify("owners", err))
	}
	return o, nil
}

// FindOwnerByLabel matches a display name or system key, ignoring case.
func (r *SQLiteRepository) FindOwnerByLabel(ctx context.Context, label string) (core.Owner, error) {
	label = strings.TrimSpace(label)
	row := r.q.QueryRowContext(ctx, `
		SELECT `+ownerColumns+` FROM owners
		WHERE lower(display_name) = lower(?) OR lower(system_key) = lower(?)
		ORDER BY sort_order
		LIMIT 1`, label, label)
	o, err := scanOwner(row)
	if err != nil {
		return core.Owner{}, fmt.Errorf("find owner %q: %w", label, classify("owners", err))
	}
	return o, nil
}

func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]core.Owner, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+ownerColumns+` FROM owners ORDER BY sort_order, display_name`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []core.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// UpdateOwner rewrites the mutable owner fields. The system key never changes.
func (r *SQLiteRepository) UpdateOwner(ctx context.Context, o core.Owner) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE owners SET display_name = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		o.DisplayName, o.SortOrder, formatTime(o.UpdatedAt), o.ID)
	if err != nil {
		return fmt.Errorf("update owner %s: %w", o.ID, classify("owners", err))
	}
	return expectAffected("owners", res)
}

func (r *SQLiteRepository) DeleteOwner(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete owner %s: %w", id, classify("owners", err))
	}
	return expectAffected("owners", res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(s rowScanner) (core.Owner, error) {
	var (
		o                core.Owner
		created, updated string
	)
	if err := s.Scan(&o.ID, &o.SystemKey, &o.DisplayName, &o.SortOrder, &created, &updated); err != nil {
		return core.Owner{}, err
	}
	var err error
	if o.CreatedAt, o.UpdatedAt, err = auditTimes(created, updated); err != nil {
		return core.Owner{}, err
	}
	return o, nil
}
