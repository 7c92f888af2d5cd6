package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	cevents "github.com/radieske/roulette-table-poc/pkg/contracts/events"
)

// Schema cria as tabelas de arquivo; pode ser executado a cada partida do worker
const Schema = `
CREATE TABLE IF NOT EXISTS roulette_rounds (
  round_id            UUID PRIMARY KEY,
  table_id            TEXT        NOT NULL,
  session_ref         TEXT        NOT NULL,
  winning_number      SMALLINT    NOT NULL CHECK (winning_number BETWEEN 0 AND 36),
  total_wagered_cents BIGINT      NOT NULL,
  total_won_cents     BIGINT      NOT NULL,
  net_profit_cents    BIGINT      NOT NULL,
  bankroll_cents      BIGINT      NOT NULL,
  settled_at          TIMESTAMPTZ NOT NULL,
  archived_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS roulette_rounds_table_settled_idx ON roulette_rounds (table_id, settled_at DESC);
CREATE TABLE IF NOT EXISTS roulette_round_bets (
  round_id     UUID       NOT NULL REFERENCES roulette_rounds(round_id) ON DELETE CASCADE,
  seq          INT        NOT NULL,
  bet_type     TEXT       NOT NULL,
  numbers      SMALLINT[] NOT NULL,
  amount_cents BIGINT     NOT NULL,
  payout_cents BIGINT     NOT NULL,
  PRIMARY KEY (round_id, seq)
);`

// Postgres grava rodadas liquidadas; o arquivo é só de auditoria, nunca restaura sessões
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// EnsureSchema aplica Schema
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertRound grava a rodada e suas apostas numa transação
// Rodada já arquivada (reentrega do Kafka) retorna false sem erro
func (r *Postgres) InsertRound(ctx context.Context, e cevents.RoundSettled) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qRound = `
		INSERT INTO roulette_rounds
		  (round_id, table_id, session_ref, winning_number, total_wagered_cents,
		   total_won_cents, net_profit_cents, bankroll_cents, settled_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (round_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, qRound,
		e.RoundID, e.TableID, e.SessionRef, e.WinningNumber, e.TotalWagered,
		e.TotalWon, e.NetProfit, e.Bankroll, time.UnixMilli(e.TsUnixMs).UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert round %s: %w", e.RoundID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, tx.Commit()
	}

	const qBet = `
		INSERT INTO roulette_round_bets
		  (round_id, seq, bet_type, numbers, amount_cents, payout_cents)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
	`
	for i, b := range e.Bets {
		nums := make([]int64, len(b.Numbers))
		for j, n := range b.Numbers {
			nums[j] = int64(n)
		}
		if _, err := tx.ExecContext(ctx, qBet, e.RoundID, i, b.BetType, pq.Array(nums), b.Amount, b.Payout); err != nil {
			return false, fmt.Errorf("insert bet %d of round %s: %w", i, e.RoundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit round %s: %w", e.RoundID, err)
	}
	return true, nil
}
