package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
)

// Reply é a resposta crua recebida da mesa
type Reply struct {
	Cmd       string          `json:"cmd"`
	RequestID string          `json:"requestId"`
	Success   bool            `json:"success"`
	Error     *dto.ErrorBody  `json:"error"`
	Data      json.RawMessage `json:"data"`
}

// ReplyError é devolvido quando a mesa responde success=false
type ReplyError struct {
	Cmd     string
	Code    string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Cmd, e.Code, e.Message)
}

// Client fala o protocolo da mesa por WebSocket, um comando por vez
type Client struct {
	conn *websocket.Conn
	log  *zap.Logger

	// SessionID é preenchido pelo Login
	SessionID string
}

// Dial conecta no endpoint /ws da mesa
func Dial(ctx context.Context, url string, log *zap.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn, log: log}, nil
}

func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}

// Do envia um comando e espera a resposta dele
// Mensagens empurradas pelo servidor (timesync, table-result) são ignoradas
func (c *Client) Do(ctx context.Context, cmd string, params any) (Reply, error) {
	frame := map[string]any{"cmd": cmd}
	if params != nil {
		frame["params"] = params
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return Reply{}, fmt.Errorf("send %s: %w", cmd, err)
	}

	for {
		var r Reply
		if err := c.conn.ReadJSON(&r); err != nil {
			return Reply{}, fmt.Errorf("read %s reply: %w", cmd, err)
		}
		if r.Cmd != cmd && r.Cmd != "" {
			c.log.Debug("push message ignored", zap.String("cmd", r.Cmd))
			continue
		}
		if !r.Success {
			e := &ReplyError{Cmd: cmd}
			if r.Error != nil {
				e.Code, e.Message = r.Error.Code, r.Error.Message
			}
			return r, e
		}
		return r, nil
	}
}

func (c *Client) Login(ctx context.Context) (dto.LoginData, error) {
	var out dto.LoginData
	if err := c.call(ctx, dto.CmdLogin, nil, &out); err != nil {
		return out, err
	}
	c.SessionID = out.SessionID
	return out, nil
}

func (c *Client) EnterGame(ctx context.Context) (dto.GameConfig, error) {
	var out dto.GameConfig
	err := c.call(ctx, dto.CmdEnterGame, nil, &out)
	return out, err
}

func (c *Client) PlaceBet(ctx context.Context, betType string, numbers []int, amount int64) error {
	return c.call(ctx, dto.CmdPlaceBet, dto.PlaceBetParams{BetType: betType, Numbers: numbers, Amount: amount}, nil)
}

// ClearBets devolve à banca todas as apostas vivas
func (c *Client) ClearBets(ctx context.Context) (roulette.ClearResult, error) {
	var out roulette.ClearResult
	err := c.call(ctx, dto.CmdClearBets, nil, &out)
	return out, err
}

// SpinOutcome é o resumo de uma rodada visto pelo cliente
type SpinOutcome struct {
	RoundID       string `json:"roundId"`
	WinningNumber int    `json:"winningNumber"`
	TotalWagered  int64  `json:"totalWagered"`
	TotalWinnings int64  `json:"totalWinnings"`
	Bankroll      int64  `json:"bankroll"`
}

func (c *Client) Spin(ctx context.Context) (SpinOutcome, error) {
	var out SpinOutcome
	err := c.call(ctx, dto.CmdSpin, nil, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, cmd string, params any, out any) error {
	r, err := c.Do(ctx, cmd, params)
	if err != nil {
		return err
	}
	if out == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", cmd, err)
	}
	return nil
}
