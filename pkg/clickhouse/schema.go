package clickhouse

import "fmt"

// SignalSchema returns the DDL for the metrics and signal tables in database.
func SignalSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sentiment_metrics (
    ts                        DateTime64(3, 'UTC'),
    symbol                    LowCardinality(String),
    raw_score                 Float64,
    normalized_score          Float64,
    strength_category         LowCardinality(String),
    confidence                Float64,
    volatility_adjusted_score Float64,
    market_adjusted_score     Float64,
    z_score                   Float64,
    percentile_rank           Float64
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (symbol, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trading_signals (
    id              UUID,
    ts              DateTime64(3, 'UTC'),
    symbol          LowCardinality(String),
    signal          LowCardinality(String),
    strength        LowCardinality(String),
    confidence      Float64,
    reasoning       String,
    supporting_data String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (symbol, ts)`, database),
	}
}
