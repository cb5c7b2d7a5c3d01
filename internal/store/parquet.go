package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/types"
	"go.uber.org/zap"
)

// ParquetWriter exports a completed result's trade log and equity curve to
// Parquet files, plus a YAML summary, in a results directory. It stages the
// rows through an in-memory DuckDB and uses COPY for the export.
type ParquetWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewParquetWriter opens the staging database.
func NewParquetWriter(log *logger.Logger) (*ParquetWriter, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	return &ParquetWriter{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Write exports the result into the given directory, creating it if needed.
func (w *ParquetWriter) Write(path string, result *types.BacktestResult) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	if err := w.stage(result); err != nil {
		return err
	}

	tradesPath := filepath.Join(path, "trades.parquet")
	if _, err := w.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return fmt.Errorf("failed to export trades to Parquet: %w", err)
	}

	equityPath := filepath.Join(path, "equity.parquet")
	if _, err := w.db.Exec(fmt.Sprintf(`COPY equity TO '%s' (FORMAT PARQUET)`, equityPath)); err != nil {
		return fmt.Errorf("failed to export equity curve to Parquet: %w", err)
	}

	summaryPath := filepath.Join(path, "summary.yaml")
	if err := types.WriteResultSummary(summaryPath, result); err != nil {
		return err
	}

	w.logger.Info("Exported backtest results",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
		zap.String("summary", summaryPath),
	)

	return nil
}

// stage rebuilds the staging tables from the result's immutable sequences.
func (w *ParquetWriter) stage(result *types.BacktestResult) error {
	_, err := w.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
		CREATE TABLE trades (
			step_index INTEGER,
			date TIMESTAMP,
			action TEXT,
			resulting_position TEXT,
			price DOUBLE,
			gross_return DOUBLE,
			cost DOUBLE,
			net_return DOUBLE,
			cumulative_return DOUBLE,
			position_changed BOOLEAN
		);
		CREATE TABLE equity (
			step_index INTEGER,
			date TIMESTAMP,
			gross_equity DOUBLE,
			net_equity DOUBLE,
			drawdown DOUBLE
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create staging tables: %w", err)
	}

	for _, trade := range result.Trades {
		insert := w.sq.
			Insert("trades").
			Columns(
				"step_index", "date", "action", "resulting_position", "price",
				"gross_return", "cost", "net_return", "cumulative_return", "position_changed",
			).
			Values(
				trade.StepIndex, trade.Date, string(trade.Action), trade.ResultingPosition.String(), trade.Price,
				trade.GrossReturn, trade.Cost, trade.NetReturn, trade.CumulativeReturn, trade.PositionChanged,
			).
			RunWith(w.db)

		if _, err := insert.Exec(); err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
	}

	for _, point := range result.EquityCurve {
		insert := w.sq.
			Insert("equity").
			Columns("step_index", "date", "gross_equity", "net_equity", "drawdown").
			Values(point.StepIndex, point.Date, point.GrossEquity, point.NetEquity, point.Drawdown).
			RunWith(w.db)

		if _, err := insert.Exec(); err != nil {
			return fmt.Errorf("failed to insert equity point: %w", err)
		}
	}

	return nil
}

// Close releases the staging database.
func (w *ParquetWriter) Close() error {
	return w.db.Close()
}
