// Package executor runs approved execution requests against PostgreSQL.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/execgate/pkg/errs"
	"github.com/doodlesbykumbi/execgate/pkg/gate"
	"github.com/doodlesbykumbi/execgate/pkg/model"
	"github.com/doodlesbykumbi/execgate/pkg/request"
)

// readOnlySQLTransaction is the SQLSTATE postgres reports for writes inside
// a READ ONLY transaction.
const readOnlySQLTransaction = "25006"

// Opener returns the database handle for a connection.
type Opener func(ctx context.Context, conn *model.Connection) (*sql.DB, error)

// SQL executes every statement of a request in one transaction. Read-only
// requests run in a READ ONLY transaction.
type SQL struct {
	open   Opener
	logger zerolog.Logger

	mu    sync.Mutex
	pools map[string]*sql.DB
}

var _ gate.Executor = (*SQL)(nil)

// New creates an executor obtaining handles from open. Handles are cached
// per connection id until Close.
func New(open Opener, logger zerolog.Logger) *SQL {
	return &SQL{
		open:   open,
		logger: logger.With().Str("component", "executor").Logger(),
		pools:  map[string]*sql.DB{},
	}
}

// NewPostgres creates an executor that resolves each connection's
// CredentialsRef to a DSN and opens it with lib/pq.
func NewPostgres(logger zerolog.Logger) *SQL {
	return New(func(ctx context.Context, conn *model.Connection) (*sql.DB, error) {
		dsn, err := ResolveDSN(conn.CredentialsRef)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", conn.ID, err)
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to reach connection %s: %w", conn.ID, err)
		}
		return db, nil
	}, logger)
}

// ResolveDSN turns a credentials reference into a DSN. "env:NAME" reads the
// environment variable NAME, "file:PATH" reads PATH and anything else is
// taken as the DSN itself.
func ResolveDSN(ref string) (string, error) {
	var dsn string
	switch {
	case strings.HasPrefix(ref, "env:"):
		name := strings.TrimPrefix(ref, "env:")
		dsn = os.Getenv(name)
		if dsn == "" {
			return "", errs.Validation("environment variable %s is not set", name)
		}
	case strings.HasPrefix(ref, "file:"):
		b, err := os.ReadFile(strings.TrimPrefix(ref, "file:"))
		if err != nil {
			return "", errs.Wrap(errs.ErrValidation, err, "failed to read credentials")
		}
		dsn = strings.TrimSpace(string(b))
	default:
		dsn = ref
	}
	if dsn == "" {
		return "", errs.Validation("no credentials configured")
	}
	return dsn, nil
}

// Execute runs req on conn.
func (s *SQL) Execute(ctx context.Context, conn *model.Connection, req *model.ExecutionRequest) (*gate.Result, error) {
	db, err := s.db(ctx, conn)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: req.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := request.SplitStatements(req.Statement)
	var total int64
	for i, stmt := range statements {
		res, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, classify(err))
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", classify(err))
	}

	s.logger.Debug().
		Str("request", req.ID).
		Str("connection", conn.ID).
		Int("statements", len(statements)).
		Int64("rows_affected", total).
		Msg("statements executed")
	return &gate.Result{
		RowsAffected: total,
		Message:      fmt.Sprintf("%d statement(s), %d row(s) affected", len(statements), total),
	}, nil
}

// Close closes every cached handle.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errList []error
	for id, db := range s.pools {
		if err := db.Close(); err != nil {
			errList = append(errList, fmt.Errorf("connection %s: %w", id, err))
		}
		delete(s.pools, id)
	}
	return errors.Join(errList...)
}

func (s *SQL) db(ctx context.Context, conn *model.Connection) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.pools[conn.ID]; ok {
		return db, nil
	}
	db, err := s.open(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.pools[conn.ID] = db
	return db, nil
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == readOnlySQLTransaction {
		return fmt.Errorf("%s: %w", pqErr.Message, gate.ErrMutationAttempt)
	}
	return err
}
