package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
	"github.com/radieske/roulette-table-poc/internal/shared/config"
	"github.com/radieske/roulette-table-poc/internal/shared/logger"
	client "github.com/radieske/roulette-table-poc/internal/table-client"
)

// table-bot joga rodadas contra uma mesa em execução (smoke test do protocolo)
func main() {
	cfg := config.Load()
	log, err := logger.New("table-bot", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("table-bot failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	c, err := client.Dial(ctx, cfg.BotTableURL, log)
	if err != nil {
		return fmt.Errorf("dial table: %w", err)
	}
	defer c.Close()

	login, err := c.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	table, err := c.EnterGame(ctx)
	if err != nil {
		return fmt.Errorf("enter-game: %w", err)
	}
	log.Info("seated",
		zap.String("table_id", table.TableID),
		zap.Int64("bankroll", login.Bankroll),
		zap.Int64("min_bet", table.MinBet),
	)

	stake := max(cfg.BotStake, table.MinBet)
	for i := 1; i <= cfg.BotRounds && ctx.Err() == nil; i++ {
		rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		out, err := playRound(rctx, c, stake, rand.IntN(37))
		cancel()

		var rerr *client.ReplyError
		if errors.As(err, &rerr) && rerr.Code == dto.CodeInsufficientFunds {
			log.Info("bankroll exhausted", zap.Int("round", i))
			return nil
		}
		if err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
		log.Info("round",
			zap.Int("round", i),
			zap.Int("winning_number", out.WinningNumber),
			zap.Int64("won", out.TotalWinnings),
			zap.Int64("bankroll", out.Bankroll),
		)
	}
	return nil
}

// playRound aposta no número n e no vermelho, e gira
// Se a segunda aposta falhar, as apostas vivas voltam para a banca
func playRound(ctx context.Context, c *client.Client, stake int64, n int) (client.SpinOutcome, error) {
	if err := c.PlaceBet(ctx, string(roulette.Straight), []int{n}, stake); err != nil {
		return client.SpinOutcome{}, err
	}
	if err := c.PlaceBet(ctx, string(roulette.EvenMoney), roulette.RedNumbers, stake); err != nil {
		if _, cerr := c.ClearBets(ctx); cerr != nil {
			return client.SpinOutcome{}, errors.Join(err, fmt.Errorf("clear bets: %w", cerr))
		}
		return client.SpinOutcome{}, err
	}
	return c.Spin(ctx)
}
