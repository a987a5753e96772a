package storage

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/user"
)

func (q queries) CreateUser(ctx context.Context, rec *user.Record) error {
	query := q.sb.Insert("users").
		Columns("id", "email", "user_name", "created_at").
		Values(rec.ID, rec.Email, rec.UserName, toUnix(rec.CreatedAt))

	_, err := query.ExecContext(ctx)
	return errors.Wrap(err, "create user")
}

// GetUserByID returns nil when the user does not exist.
func (q queries) GetUserByID(ctx context.Context, id uuid.UUID) (*user.Record, error) {
	query := q.sb.Select("id", "email", "user_name", "created_at").
		From("users").
		Where(sq.Eq{"id": id})

	var (
		res     user.Record
		created int64
	)
	err := query.QueryRowContext(ctx).Scan(&res.ID, &res.Email, &res.UserName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	res.CreatedAt = fromUnix(created)
	return &res, nil
}

func (q queries) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	rec, err := q.GetUserByID(ctx, id)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}
