package combiner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/radar/internal/contracts"
)

// Repository persists combined signals and daily decision traces. Scalar
// columns carry what queries filter and sort on; the full component
// signals ride along as JSONB so the breakdowns survive verbatim.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a signal repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ contracts.SignalRepository   = (*Repository)(nil)
	_ contracts.DecisionRepository = (*Repository)(nil)
)

// UpsertSignal writes the signal for (ticker, date), overwriting any
// earlier computation for the same key.
func (r *Repository) UpsertSignal(ctx context.Context, signal *contracts.CombinedSignal) error {
	insiderJSON, err := json.Marshal(signal.Insider)
	if err != nil {
		return fmt.Errorf("failed to marshal insider signal: %w", err)
	}
	optionsJSON, err := json.Marshal(signal.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options signal: %w", err)
	}
	socialJSON, err := json.Marshal(signal.Social)
	if err != nil {
		return fmt.Errorf("failed to marshal social signal: %w", err)
	}

	query := `
		INSERT INTO signals.combined_signals (
			ticker, signal_date, total_score, insider_score, options_score, social_score,
			action, tier, position_size, insider_detail, options_detail, social_detail,
			entry_price, stop_price, target_price, notes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (ticker, signal_date) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			insider_score = EXCLUDED.insider_score,
			options_score = EXCLUDED.options_score,
			social_score = EXCLUDED.social_score,
			action = EXCLUDED.action,
			tier = EXCLUDED.tier,
			position_size = EXCLUDED.position_size,
			insider_detail = EXCLUDED.insider_detail,
			options_detail = EXCLUDED.options_detail,
			social_detail = EXCLUDED.social_detail,
			entry_price = EXCLUDED.entry_price,
			stop_price = EXCLUDED.stop_price,
			target_price = EXCLUDED.target_price,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		signal.Ticker, signal.Date, signal.TotalScore,
		signal.Insider.Score, signal.Options.Score, signal.Social.Score,
		signal.Action, signal.Tier, signal.PositionSize,
		insiderJSON, optionsJSON, socialJSON,
		signal.EntryPrice, signal.StopPrice, signal.TargetPrice, signal.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert signal: %w", err)
	}
	return nil
}

// SignalsForDate returns the date's signals ordered by total score
// descending. A non-empty action filters; a limit of zero returns all.
func (r *Repository) SignalsForDate(ctx context.Context, date time.Time, action contracts.Action, limit int) ([]contracts.CombinedSignal, error) {
	query := `
		SELECT ticker, signal_date, total_score, action, tier, position_size,
		       insider_detail, options_detail, social_detail,
		       entry_price, stop_price, target_price, COALESCE(notes, '')
		FROM signals.combined_signals
		WHERE signal_date = $1
	`
	args := []interface{}{date}
	if action != "" {
		args = append(args, action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	query += " ORDER BY total_score DESC, ticker"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []contracts.CombinedSignal
	for rows.Next() {
		var s contracts.CombinedSignal
		var insiderJSON, optionsJSON, socialJSON []byte
		err := rows.Scan(
			&s.Ticker, &s.Date, &s.TotalScore, &s.Action, &s.Tier, &s.PositionSize,
			&insiderJSON, &optionsJSON, &socialJSON,
			&s.EntryPrice, &s.StopPrice, &s.TargetPrice, &s.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if err := json.Unmarshal(insiderJSON, &s.Insider); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insider detail: %w", err)
		}
		if err := json.Unmarshal(optionsJSON, &s.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options detail: %w", err)
		}
		if err := json.Unmarshal(socialJSON, &s.Social); err != nil {
			return nil, fmt.Errorf("failed to unmarshal social detail: %w", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read signals: %w", err)
	}
	return signals, nil
}

// SaveDecision upserts the decision trace for its date.
func (r *Repository) SaveDecision(ctx context.Context, decision *contracts.DayDecision) error {
	candidatesJSON, err := json.Marshal(decision.TopCandidates)
	if err != nil {
		return fmt.Errorf("failed to marshal top candidates: %w", err)
	}
	rejectedJSON, err := json.Marshal(decision.RejectedSamples)
	if err != nil {
		return fmt.Errorf("failed to marshal rejected samples: %w", err)
	}

	query := `
		INSERT INTO signals.day_decisions (
			decision_date, schema_version, has_pick, ticker, score, reason,
			candidate_count, filtered_count, top_candidates, rejected_samples, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (decision_date) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			has_pick = EXCLUDED.has_pick,
			ticker = EXCLUDED.ticker,
			score = EXCLUDED.score,
			reason = EXCLUDED.reason,
			candidate_count = EXCLUDED.candidate_count,
			filtered_count = EXCLUDED.filtered_count,
			top_candidates = EXCLUDED.top_candidates,
			rejected_samples = EXCLUDED.rejected_samples,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		decision.Date, decision.SchemaVersion, decision.HasPick,
		decision.Ticker, decision.Score, decision.Reason,
		decision.CandidateCount, decision.FilteredCount,
		candidatesJSON, rejectedJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// Decision returns the decision trace for a date, or nil when none was
// recorded.
func (r *Repository) Decision(ctx context.Context, date time.Time) (*contracts.DayDecision, error) {
	query := `
		SELECT decision_date, schema_version, has_pick, COALESCE(ticker, ''), score, reason,
		       candidate_count, filtered_count, top_candidates, rejected_samples
		FROM signals.day_decisions
		WHERE decision_date = $1
	`

	var d contracts.DayDecision
	var candidatesJSON, rejectedJSON []byte
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&d.Date, &d.SchemaVersion, &d.HasPick, &d.Ticker, &d.Score, &d.Reason,
		&d.CandidateCount, &d.FilteredCount, &candidatesJSON, &rejectedJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query decision: %w", err)
	}
	if err := json.Unmarshal(candidatesJSON, &d.TopCandidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top candidates: %w", err)
	}
	if err := json.Unmarshal(rejectedJSON, &d.RejectedSamples); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rejected samples: %w", err)
	}
	return &d, nil
}
