package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/logger"

	// postgres driver
	_ "github.com/lib/pq"
	// pure Go sqlite driver
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type config interface {
	Driver() string
	DSN() string
}

// Storage is the relational entity store. Reads go straight to the pool,
// writes go through InTx.
type Storage struct {
	queries
	db     *sql.DB
	driver string
}

// queries holds every statement; it runs against either the pool or a
// transaction.
type queries struct {
	sb sq.StatementBuilderType
}

// Tx is a unit of work. It exposes the same statements as Storage.
type Tx struct {
	queries
}

func New(config config) (*Storage, error) {
	driver, dsn := config.Driver(), config.DSN()
	if driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	if err := Migrate(driver, dsn); err != nil {
		return nil, errors.Wrap(err, "migrate database")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if driver == DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "cannot connect to database")
	}

	logger.Info("storage initialized", zap.String("driver", driver))
	return &Storage{
		queries: queries{sb: builder(driver).RunWith(db)},
		db:      db,
		driver:  driver,
	}, nil
}

func builder(driver string) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func sqliteDSN(path string) (string, error) {
	if strings.Contains(path, "?") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "create database directory")
		}
	}
	return path + "?" + sqlitePragmas, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside a single transaction. The transaction is committed
// only if fn returns nil.
func (s *Storage) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		txErr := sqlTx.Rollback()
		if txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
			logger.Error("error when transaction rollback", zap.Error(txErr))
		}
	}()

	if err = fn(&Tx{queries{sb: builder(s.driver).RunWith(sqlTx)}}); err != nil {
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "commit transaction")
}

// Filter narrows list queries to one owner and an inclusive date range.
type Filter struct {
	UserID uuid.UUID
	From   *time.Time
	To     *time.Time
}

func (f Filter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	b = b.Where(sq.Eq{"a.user_id": f.UserID})
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"a.added_date": toUnix(*f.From)})
	}
	if f.To != nil {
		b = b.Where(sq.LtOrEq{"a.added_date": toUnix(*f.To)})
	}
	return b
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromUnix(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// Normalize truncates t to the precision the store keeps.
func Normalize(t time.Time) time.Time {
	return fromUnix(toUnix(t))
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}
