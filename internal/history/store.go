// Package history keeps finalised trades in DuckDB so they can be queried after the executor
// dropped them from memory, and exports them to parquet.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"go.uber.org/zap"
)

var columns = []string{
	"id", "symbol", "side", "order_type", "status", "wallet", "backend", "order_id",
	"amount", "price", "requested_amount", "executed_price", "executed_amount",
	"error", "created_at", "updated_at",
}

// Filter narrows a Query. Zero values match everything.
type Filter struct {
	Symbol string
	Status types.TradeStatus
	// Limit caps the number of rows returned, newest first. Zero means no limit.
	Limit uint64
}

// Store is an in-memory DuckDB table of finalised trades. When an output path is set, existing
// rows are loaded from it on open and Flush writes the table back as parquet.
type Store struct {
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	outputPath string
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewStore opens the store. outputPath may be empty for a purely in-memory history.
func NewStore(outputPath string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to open DuckDB connection", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to connect to DuckDB", err)
	}

	s := &Store{
		db:         db,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		outputPath: outputPath,
		logger:     log.Named("history"),
	}

	if err := s.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			order_type TEXT,
			status TEXT,
			wallet TEXT,
			backend TEXT,
			order_id TEXT,
			amount DOUBLE,
			price DOUBLE,
			requested_amount DOUBLE,
			executed_price DOUBLE,
			executed_amount DOUBLE,
			error TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to create trades table", err)
	}

	if s.outputPath == "" {
		return nil
	}

	if _, err := os.Stat(s.outputPath); err != nil {
		return nil
	}

	_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO trades SELECT * FROM read_parquet('%s')`, s.outputPath))
	if err != nil {
		s.logger.Warn("Failed to load existing trade history, starting empty",
			zap.String("path", s.outputPath),
			zap.Error(err),
		)
	}

	return nil
}

// Write upserts a trade by id.
func (s *Store) Write(trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New(errors.ErrCodeHistoryWriteFailed, "history store is closed")
	}

	_, err := s.sq.
		Insert("trades").
		Options("OR REPLACE").
		Columns(columns...).
		Values(
			trade.ID, trade.Proposal.Symbol, string(trade.Proposal.Side), string(trade.Proposal.OrderType),
			string(trade.Status), trade.WalletPublicKey, trade.Backend, trade.OrderID,
			trade.Proposal.Amount, trade.Proposal.Price, trade.RequestedAmount, trade.ExecutedPrice, trade.ExecutedAmount,
			trade.Error, trade.CreatedAt.UTC(), trade.UpdatedAt.UTC(),
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeHistoryWriteFailed, err, "failed to write trade %s", trade.ID)
	}

	return nil
}

// Query returns stored trades matching filter, newest first. Only the persisted fields of the
// trade and its proposal are populated.
func (s *Store) Query(filter Filter) ([]types.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New(errors.ErrCodeHistoryQueryFailed, "history store is closed")
	}

	query := s.sq.Select(columns...).From("trades").OrderBy("created_at DESC", "id DESC")

	if filter.Symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": filter.Symbol})
	}

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": string(filter.Status)})
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade                  types.Trade
			side, orderType, state string
			createdAt, updatedAt   time.Time
		)

		err := rows.Scan(
			&trade.ID, &trade.Proposal.Symbol, &side, &orderType, &state,
			&trade.WalletPublicKey, &trade.Backend, &trade.OrderID,
			&trade.Proposal.Amount, &trade.Proposal.Price, &trade.RequestedAmount,
			&trade.ExecutedPrice, &trade.ExecutedAmount, &trade.Error,
			&createdAt, &updatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to scan trade row", err)
		}

		trade.Proposal.Side = types.Side(side)
		trade.Proposal.OrderType = types.OrderType(orderType)
		trade.Status = types.TradeStatus(state)
		trade.CreatedAt = createdAt.UTC()
		trade.UpdatedAt = updatedAt.UTC()

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to iterate trade rows", err)
	}

	return trades, nil
}

// Count returns the number of stored trades.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, errors.New(errors.ErrCodeHistoryQueryFailed, "history store is closed")
	}

	var count int

	if err := s.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

// Flush exports the table to the output path. Without an output path it does nothing.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New(errors.ErrCodeHistoryWriteFailed, "history store is closed")
	}

	if s.outputPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to create history directory", err)
	}

	_, err := s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY created_at ASC) TO '%s' (FORMAT PARQUET)`, s.outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to export trade history to parquet", err)
	}

	return nil
}

// OutputPath returns the parquet file path.
func (s *Store) OutputPath() string {
	return s.outputPath
}

// Close releases database resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to close DuckDB connection", err)
	}

	return nil
}
