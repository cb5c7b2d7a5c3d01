package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/engine"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"go.uber.org/zap"
)

// runRequest carries the tunable backtest parameters. Omitted fields fall
// back to the server's default config.
type runRequest struct {
	LookbackDays        *int     `json:"lookback_days,omitempty"`
	InitialCapital      *float64 `json:"initial_capital,omitempty"`
	TransactionCostRate *float64 `json:"transaction_cost_rate,omitempty"`
}

type tradeEntry struct {
	Date     string  `json:"date"`
	Action   string  `json:"action"`
	Position string  `json:"position"`
	Price    float64 `json:"price"`
	Return   float64 `json:"return"`
	Cost     float64 `json:"cost"`
}

type equityEntry struct {
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Drawdown float64 `json:"drawdown"`
}

type accuracyBody struct {
	MAE                 float64 `json:"mae"`
	RMSE                float64 `json:"rmse"`
	MAPE                float64 `json:"mape"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
	Correlation         float64 `json:"correlation"`
	Samples             int     `json:"samples"`
}

type tradingBody struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRate        float64 `json:"win_rate"`
}

type runResponse struct {
	RunID           string        `json:"run_id"`
	Timestamp       time.Time     `json:"timestamp"`
	AccuracyMetrics accuracyBody  `json:"accuracy_metrics"`
	TradingMetrics  tradingBody   `json:"trading_metrics"`
	BuyHoldMetrics  *tradingBody  `json:"buy_hold_metrics,omitempty"`
	EquityCurve     []equityEntry `json:"equity_curve"`
	Trades          []tradeEntry  `json:"trades"`
	DataPoints      int           `json:"data_points"`
	WindowShortfall int           `json:"window_shortfall"`
	Liquidated      bool          `json:"liquidated"`
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse request body", err))
			return
		}
	}

	config := s.defaults
	if req.LookbackDays != nil {
		config.LookbackDays = *req.LookbackDays
	}
	if req.InitialCapital != nil {
		config.InitialCapital = *req.InitialCapital
	}
	if req.TransactionCostRate != nil {
		config.TransactionCostRate = *req.TransactionCostRate
	}

	result, err := s.runner.RunWithBaseline(r.Context(), config, optional.None[engine.OnStepCallback]())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.results.Put(result)

	s.log.Info("Backtest run completed via API",
		zap.String("run_id", result.ID),
		zap.Int("data_points", len(result.Trades)),
	)

	s.writeJSON(w, http.StatusOK, s.buildRunResponse(result))
}

func (s *Server) buildRunResponse(result *types.BacktestResult) runResponse {
	resp := runResponse{
		RunID:     result.ID,
		Timestamp: result.Timestamp,
		AccuracyMetrics: accuracyBody{
			MAE:                 result.Accuracy.MAE,
			RMSE:                result.Accuracy.RMSE,
			MAPE:                result.Accuracy.MAPE,
			DirectionalAccuracy: result.Accuracy.DirectionalAccuracy,
			Correlation:         result.Accuracy.Correlation,
			Samples:             result.Accuracy.Samples,
		},
		TradingMetrics:  tradingMetricsBody(result.Trading),
		EquityCurve:     equityEntries(result.EquityCurve, result.Parameters.InitialCapital),
		Trades:          tradeEntries(result.Trades),
		DataPoints:      len(result.Trades),
		WindowShortfall: result.WindowShortfall,
		Liquidated:      result.Liquidated,
	}

	if result.Baseline.IsSome() {
		baseline := tradingMetricsBody(result.Baseline.Unwrap().Trading)
		resp.BuyHoldMetrics = &baseline
	}

	return resp
}

func tradingMetricsBody(m types.TradingMetrics) tradingBody {
	return tradingBody{
		TotalReturnPct: m.TotalReturnPct,
		SharpeRatio:    m.SharpeRatio,
		MaxDrawdownPct: m.MaxDrawdownPct,
		WinRate:        m.WinRate,
	}
}

func tradeEntries(trades []types.Trade) []tradeEntry {
	entries := make([]tradeEntry, 0, len(trades))
	for _, t := range trades {
		entries = append(entries, tradeEntry{
			Date:     t.Date.Format(time.DateOnly),
			Action:   string(t.Action),
			Position: t.ResultingPosition.String(),
			Price:    t.Price,
			Return:   t.NetReturn,
			Cost:     t.Cost,
		})
	}

	return entries
}

// equityEntries scales the unit equity curve by the run's initial capital so
// the API reports dollar values.
func equityEntries(curve []types.EquityPoint, initialCapital float64) []equityEntry {
	entries := make([]equityEntry, 0, len(curve))
	for _, p := range curve {
		entries = append(entries, equityEntry{
			Date:     p.Date.Format(time.DateOnly),
			Value:    p.NetEquity * initialCapital,
			Drawdown: p.Drawdown,
		})
	}

	return entries
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	result, err := s.results.Last()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_id": result.ID,
		"trades": tradeEntries(result.Trades),
		"count":  len(result.Trades),
	})
}

type equityCurveSummary struct {
	InitialEquity float64 `json:"initial_equity"`
	FinalEquity   float64 `json:"final_equity"`
	PeakEquity    float64 `json:"peak_equity"`
	DataPoints    int     `json:"data_points"`
}

func (s *Server) handleEquityCurve(w http.ResponseWriter, r *http.Request) {
	result, err := s.results.Last()
	if err != nil {
		s.writeError(w, err)
		return
	}

	capital := result.Parameters.InitialCapital

	s.writeJSON(w, http.StatusOK, map[string]any{
		"data": equityEntries(result.EquityCurve, capital),
		"summary": equityCurveSummary{
			InitialEquity: capital,
			FinalEquity:   result.FinalNetEquity() * capital,
			PeakEquity:    result.PeakNetEquity() * capital,
			DataPoints:    len(result.EquityCurve),
		},
	})
}

type performanceResponse struct {
	TotalReturnPct   float64      `json:"total_return_pct"`
	SharpeRatio      float64      `json:"sharpe_ratio"`
	MaxDrawdownPct   float64      `json:"max_drawdown_pct"`
	WinRate          float64      `json:"win_rate"`
	GrossTotalReturn float64      `json:"gross_total_return"`
	NetTotalReturn   float64      `json:"net_total_return"`
	TotalCosts       float64      `json:"total_costs"`
	BuyHoldMetrics   *tradingBody `json:"buy_hold_metrics,omitempty"`
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	result, err := s.results.Last()
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := performanceResponse{
		TotalReturnPct:   result.Trading.TotalReturnPct,
		SharpeRatio:      result.Trading.SharpeRatio,
		MaxDrawdownPct:   result.Trading.MaxDrawdownPct,
		WinRate:          result.Trading.WinRate,
		GrossTotalReturn: result.Trading.GrossTotalReturn,
		NetTotalReturn:   result.Trading.NetTotalReturn,
		TotalCosts:       result.Trading.TotalCosts,
	}

	if result.Baseline.IsSome() {
		baseline := tradingMetricsBody(result.Baseline.Unwrap().Trading)
		resp.BuyHoldMetrics = &baseline
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type recommendationResponse struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Date       string  `json:"date"`
}

// handleRecommendation reports the action the policy chose on the most
// recent simulated step. The confidence value is the configured pass-through
// and carries no calibrated meaning.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	result, err := s.results.Last()
	if err != nil {
		s.writeError(w, err)
		return
	}

	if len(result.Trades) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeDataNotFound, "completed run produced no trades"))
		return
	}

	last := result.Trades[len(result.Trades)-1]

	reasoning := fmt.Sprintf("policy chose %s at %.2f on the latest step, ending %s",
		last.Action, last.Price, last.ResultingPosition)

	s.writeJSON(w, http.StatusOK, recommendationResponse{
		Action:     string(last.Action),
		Confidence: s.confidence,
		Reasoning:  reasoning,
		Date:       last.Date.Format(time.DateOnly),
	})
}
