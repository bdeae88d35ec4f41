package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresAccountRepository struct {
	db *sql.DB
}

// NewPostgresAccountRepository expects the accounts table from the migrations package to exist.
func NewPostgresAccountRepository(db *sql.DB) Repository {
	return &postgresAccountRepository{db: db}
}

func (r *postgresAccountRepository) Store(ctx context.Context, acc *Account) error {
	query :=
		`INSERT INTO accounts (id, email, full_name, phone, address, location, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO NOTHING`

	p := acc.Profile
	res, err := r.db.ExecContext(ctx, query,
		string(acc.ID), acc.Email, p.FullName, p.Phone, p.Address, p.Location, nullableHash(acc.PasswordHash), acc.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrExistingEmail
	}
	return nil
}

func (r *postgresAccountRepository) Update(ctx context.Context, acc *Account) error {
	query :=
		`UPDATE accounts
		 SET full_name = $2, phone = $3, address = $4, location = $5, password_hash = $6
		 WHERE email = $1`

	p := acc.Profile
	res, err := r.db.ExecContext(ctx, query,
		acc.Email, p.FullName, p.Phone, p.Address, p.Location, nullableHash(acc.PasswordHash))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query :=
		`SELECT id, email, full_name, phone, address, location, password_hash, created_at
		 FROM accounts
		 WHERE email = $1`

	var (
		acc  Account
		id   string
		hash sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&id, &acc.Email, &acc.Profile.FullName, &acc.Profile.Phone, &acc.Profile.Address, &acc.Profile.Location, &hash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	acc.ID = ID(id)
	acc.PasswordHash = hash.String
	return &acc, nil
}

func nullableHash(hash string) sql.NullString {
	return sql.NullString{String: hash, Valid: hash != ""}
}
