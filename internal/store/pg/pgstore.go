package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"usergate.org/internal/user"
)

// Store persists user records in Postgres.
type Store struct {
	db *sql.DB
}

var _ user.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle; the caller owns its lifecycle.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const userColumns = `id, external_id, name, last_name, email, phone, role, created_at, updated_at`

func (s *Store) Save(ctx context.Context, u user.User) (user.User, error) {
	err := s.db.QueryRowContext(ctx, `
		insert into users(external_id, name, last_name, email, phone, role, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6, now(), now())
		returning `+userColumns,
		u.ExternalID, u.Name, u.LastName, u.Email, u.Phone, u.Role,
	).Scan(scanDest(&u)...)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) FindByExternalID(ctx context.Context, externalID string) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where external_id=$1`, externalID,
	).Scan(scanDest(&u)...)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email,
	).Scan(scanDest(&u)...)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

func (s *Store) Update(ctx context.Context, u user.User) (user.User, error) {
	err := s.db.QueryRowContext(ctx, `
		update users
		set name=$2, last_name=$3, email=$4, phone=$5, updated_at=now()
		where external_id=$1
		returning `+userColumns,
		u.ExternalID, u.Name, u.LastName, u.Email, u.Phone,
	).Scan(scanDest(&u)...)
	if err != nil {
		return user.User{}, mapErr(err)
	}
	return u, nil
}

func (s *Store) Delete(ctx context.Context, externalID string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where external_id=$1`, externalID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]user.User, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by id limit $1 offset $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	out := make([]user.User, 0, limit)
	for rows.Next() {
		var u user.User
		if err := rows.Scan(scanDest(&u)...); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanDest(u *user.User) []any {
	return []any{&u.ID, &u.ExternalID, &u.Name, &u.LastName, &u.Email, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt}
}

// mapErr translates driver errors to the store sentinels the orchestrator
// branches on. Unique violations are told apart by constraint name.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return user.ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "external_id"):
			return user.ErrDuplicateExternalID
		}
	}
	return err
}
