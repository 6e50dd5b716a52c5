package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"
	applogger "FinSignal/pkg/logger"
)

// ErrStoreUnavailable is returned without touching the database while the breaker is open.
var ErrStoreUnavailable = errors.New("signal store unavailable")

// BreakerSettings controls when the store stops calling ClickHouse.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// CHSignalStore implements SignalStore on ClickHouse. Writes and reads share one
// circuit breaker so a dead server costs one fast error per call instead of a timeout.
type CHSignalStore struct {
	db       *sql.DB
	database string
	cb       *gobreaker.CircuitBreaker
	l        *applogger.Logger
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)

func NewCHSignalStore(ch *pkgch.Client, bs BreakerSettings, l *applogger.Logger) *CHSignalStore {
	if l == nil {
		l = applogger.Nop()
	}
	if bs.MaxFailures == 0 {
		bs.MaxFailures = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}
	s := &CHSignalStore{db: ch.DB(), database: ch.Database(), l: l}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "clickhouse-signals",
		Timeout: bs.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= bs.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state change",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()))
		},
	})
	return s
}

func (s *CHSignalStore) table(name string) string {
	if s.database == "" {
		return name
	}
	return s.database + "." + name
}

func (s *CHSignalStore) exec(ctx context.Context, op string, fn func() error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CHSignalStore) StoreMetrics(ctx context.Context, m models.SentimentMetrics) error {
	q := fmt.Sprintf(`INSERT INTO %s (ts, symbol, raw_score, normalized_score, strength_category, confidence,
    volatility_adjusted_score, market_adjusted_score, z_score, percentile_rank) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table("sentiment_metrics"))
	return s.exec(ctx, "store metrics", func() error {
		_, err := s.db.ExecContext(ctx, q,
			m.Timestamp.UTC(),
			m.Symbol,
			m.RawScore,
			m.NormalizedScore,
			string(m.Strength),
			m.Confidence,
			m.VolatilityAdjustedScore,
			m.MarketAdjustedScore,
			m.ZScore,
			m.PercentileRank,
		)
		return err
	})
}

func (s *CHSignalStore) StoreSignal(ctx context.Context, sig models.TradingSignal) error {
	data, err := json.Marshal(sig.SupportingData)
	if err != nil {
		return fmt.Errorf("encode supporting data: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, ts, symbol, signal, strength, confidence, reasoning, supporting_data)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table("trading_signals"))
	return s.exec(ctx, "store signal", func() error {
		_, err := s.db.ExecContext(ctx, q,
			sig.ID,
			sig.Timestamp.UTC(),
			sig.Symbol,
			string(sig.Signal),
			string(sig.Strength),
			sig.Confidence,
			sig.Reasoning,
			string(data),
		)
		return err
	})
}

// QuerySignals returns signals newest first. An empty symbol matches every instrument.
func (s *CHSignalStore) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.TradingSignal, error) {
	where := []string{"ts >= ?", "ts <= ?"}
	args := []interface{}{from.UTC(), to.UTC()}
	if symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, symbol)
	}
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	q := fmt.Sprintf(`SELECT id, ts, symbol, signal, strength, confidence, reasoning, supporting_data
    FROM %s WHERE %s ORDER BY ts DESC LIMIT ?`, s.table("trading_signals"), strings.Join(where, " AND "))

	var out []models.TradingSignal
	err := s.exec(ctx, "query signals", func() error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var (
				sig            models.TradingSignal
				signal, stren  string
				supportingData string
			)
			if err := rows.Scan(&sig.ID, &sig.Timestamp, &sig.Symbol, &signal, &stren,
				&sig.Confidence, &sig.Reasoning, &supportingData); err != nil {
				return fmt.Errorf("scan signal: %w", err)
			}
			sig.Signal = models.SignalType(signal)
			sig.Strength = models.SignalStrength(stren)
			if supportingData != "" {
				if err := json.Unmarshal([]byte(supportingData), &sig.SupportingData); err != nil {
					s.l.Warn("clickhouse supporting_data decode error",
						applogger.String("id", sig.ID),
						applogger.Error(err))
				}
			}
			out = append(out, sig)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (s *CHSignalStore) Close() error { return nil }
