package market

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"go.uber.org/zap"
)

// Column names recognized as the close price, in priority order.
var priceColumns = []string{"close_price", "close", "price"}

// DuckDBSeries serves the observation series from a CSV or Parquet file
// through an in-memory DuckDB view. Every column other than the date and
// close price becomes a feature, preserving file order.
type DuckDBSeries struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	priceColumn string
	featureCols []string
}

// NewDuckDBSeries opens an in-memory DuckDB and creates the market_data
// view over the given file. The file extension selects the reader.
func NewDuckDBSeries(path string, log *logger.Logger) (*DuckDBSeries, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open duckdb", err)
	}

	s := &DuckDBSeries{
		db:          db,
		logger:      log,
		sq:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		priceColumn: "",
		featureCols: nil,
	}

	if err := s.initialize(path); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func (s *DuckDBSeries) initialize(path string) error {
	s.logger.Debug("Initializing DuckDB market series", zap.String("path", path))

	reader := "read_csv_auto"
	if filepath.Ext(path) == ".parquet" {
		reader = "read_parquet"
	}

	_, err := s.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s('%s');`, reader, path)
	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create market_data view", err)
	}

	return s.discoverColumns()
}

// discoverColumns inspects the view schema to locate the date and price
// columns and collect the remaining columns as features.
func (s *DuckDBSeries) discoverColumns() error {
	rows, err := s.db.Query(`DESCRIBE market_data`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market_data", err)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var name, colType string

		var null, key, defaultVal, extra sql.NullString
		if err := rows.Scan(&name, &colType, &null, &key, &defaultVal, &extra); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column info", err)
		}

		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "error iterating columns", err)
	}

	hasDate := false

	for _, col := range columns {
		if strings.EqualFold(col, "date") {
			hasDate = true
		}
	}

	if !hasDate {
		return errors.New(errors.ErrCodeDataNotFound, "market data file has no date column")
	}

	for _, candidate := range priceColumns {
		for _, col := range columns {
			if strings.EqualFold(col, candidate) {
				s.priceColumn = col

				break
			}
		}

		if s.priceColumn != "" {
			break
		}
	}

	if s.priceColumn == "" {
		return errors.New(errors.ErrCodeDataNotFound, "market data file has no close price column")
	}

	for _, col := range columns {
		if strings.EqualFold(col, "date") || col == s.priceColumn {
			continue
		}

		s.featureCols = append(s.featureCols, col)
	}

	return nil
}

// Window implements Series.
func (s *DuckDBSeries) Window(ctx context.Context, start, end optional.Option[time.Time]) ([]types.Observation, error) {
	cols := append([]string{"date", s.priceColumn}, s.featureCols...)
	builder := s.sq.Select(cols...).From("market_data").OrderBy("date ASC")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build window query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query window", err)
	}
	defer rows.Close()

	var observations []types.Observation

	for rows.Next() {
		obs, err := s.scanObservation(rows)
		if err != nil {
			return nil, err
		}

		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating observations", err)
	}

	if len(observations) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientData, "no observations in requested window")
	}

	return observations, nil
}

func (s *DuckDBSeries) scanObservation(rows *sql.Rows) (types.Observation, error) {
	values := make([]any, 2+len(s.featureCols))

	var rawDate any

	var price float64

	values[0] = &rawDate
	values[1] = &price

	features := make([]sql.NullFloat64, len(s.featureCols))
	for i := range features {
		values[2+i] = &features[i]
	}

	if err := rows.Scan(values...); err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan observation", err)
	}

	date, err := coerceDate(rawDate)
	if err != nil {
		return types.Observation{}, err
	}

	obs := types.Observation{
		Date:  date,
		Price: price,
		Features: types.FeatureVector{
			Names:  s.featureCols,
			Values: make([]float64, len(s.featureCols)),
		},
	}

	for i, f := range features {
		if f.Valid {
			obs.Features.Values[i] = f.Float64
		}
	}

	if err := obs.Validate(); err != nil {
		return types.Observation{}, err
	}

	return obs, nil
}

func coerceDate(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return time.Time{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "unparseable date %q", v)
		}

		return parsed, nil
	default:
		return time.Time{}, errors.Newf(errors.ErrCodeQueryFailed, "unexpected date type %T", raw)
	}
}

// Count implements Series.
func (s *DuckDBSeries) Count(ctx context.Context, start, end optional.Option[time.Time]) (int, error) {
	builder := s.sq.Select("COUNT(*)").From("market_data")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count observations", err)
	}

	return count, nil
}

// Last implements Series.
func (s *DuckDBSeries) Last(ctx context.Context) (types.Observation, error) {
	cols := append([]string{"date", s.priceColumn}, s.featureCols...)

	query, args, err := s.sq.Select(cols...).From("market_data").OrderBy("date DESC").Limit(1).ToSql()
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build last query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.Observation{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query last observation", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return types.Observation{}, errors.New(errors.ErrCodeInsufficientData, "series is empty")
	}

	return s.scanObservation(rows)
}

// Close releases the underlying database.
func (s *DuckDBSeries) Close() error {
	return s.db.Close()
}
