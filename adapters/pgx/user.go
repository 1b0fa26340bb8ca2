package pgx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
)

const uniqueViolation = "23505"

const userColumns = `id::text, name, email, password_digest, role, created_at, updated_at`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanUser(row pgx.Row) (*core.User, error) {
	u := &core.User{}
	var digest, role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &digest, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	d, err := crypto.ParseDigest(digest)
	if err != nil {
		return nil, fmt.Errorf("user %s has an unusable password digest: %w", u.ID, err)
	}
	u.PasswordDigest = d
	u.Role = core.Role(role)
	return u, nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.ErrInvalidUserID
	}
	return nil
}

func (a *Adapter) CreateUser(ctx context.Context, rec core.UserRecord) (*core.User, error) {
	q := `INSERT INTO public.users (name, email, password_digest, role) VALUES ($1, $2, $3, $4) RETURNING ` + userColumns

	u, err := scanUser(a.pool.QueryRow(ctx, q, rec.Name, rec.Email, rec.PasswordDigest.Encoded(), string(rec.Role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	q := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	u, err := scanUser(a.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM public.users WHERE lower(email) = lower($1)`
	u, err := scanUser(a.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (a *Adapter) UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (*core.User, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Email != nil {
		set("email", *upd.Email)
	}
	if upd.Role != nil {
		set("role", string(*upd.Role))
	}
	if upd.PasswordDigest != nil {
		set("password_digest", upd.PasswordDigest.Encoded())
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE public.users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(a.pool.QueryRow(ctx, q, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, core.ErrUserNotFound
		case isUniqueViolation(err):
			return nil, core.ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// likePattern matches q literally anywhere in a column.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func whereClause(f core.UserFilter, args []any) (string, []any) {
	if f.Query == "" {
		return "", args
	}
	args = append(args, likePattern(f.Query))
	n := len(args)
	return fmt.Sprintf(` WHERE name ILIKE $%d ESCAPE '\' OR email ILIKE $%d ESCAPE '\'`, n, n), args
}

func (a *Adapter) ListUsers(ctx context.Context, f core.UserFilter) ([]*core.User, error) {
	where, args := whereClause(f, nil)
	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM public.users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := a.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (a *Adapter) CountUsers(ctx context.Context, f core.UserFilter) (int, error) {
	where, args := whereClause(f, nil)
	var n int
	if err := a.pool.QueryRow(ctx, `SELECT count(*) FROM public.users`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
