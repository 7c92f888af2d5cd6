package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/ws"
)

// SessionHeader carrega o id da sessão no transporte HTTP
const SessionHeader = "X-Session-Id"

const maxBodyBytes = 64 << 10

// ResultsBoard lê o painel de números recentes de uma mesa
type ResultsBoard interface {
	Recent(ctx context.Context, tableID string) ([]int, error)
}

// API expõe os comandos da mesa por HTTP e o upgrade para WebSocket
type API struct {
	Log        *zap.Logger
	Dispatcher ws.Dispatcher
	Hub        *ws.Hub
	Board      ResultsBoard // opcional: sem Redis o painel responde 404
}

// Router retorna o roteador HTTP com os endpoints públicos
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", a.Hub.HandleWS)                      // WebSocket da mesa
	r.Post("/v1/commands", a.command)                 // Um comando por requisição
	r.Get("/v1/tables/{id}/results", a.recentResults) // Últimos números sorteados
	return r
}

type resultsResponse struct {
	TableID string `json:"tableId"`
	Numbers []int  `json:"numbers"`
}

// command despacha um comando; a sessão vem do header e a resposta devolve o header atualizado
func (a *API) command(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		reply := a.Dispatcher.Reject(errors.Join(dto.ErrBadRequest, err))
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, reply)
		return
	}

	cmd, err := dto.Decode(raw)
	if err != nil {
		reply := a.Dispatcher.Reject(err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, reply)
		return
	}

	reply, sessionID := a.Dispatcher.Dispatch(r.Header.Get(SessionHeader), cmd)
	if sessionID != "" && reply.Success && !reply.Unresolved() {
		w.Header().Set(SessionHeader, sessionID)
	}
	render.Status(r, statusFor(reply))
	render.JSON(w, r, reply)
}

func (a *API) recentResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if a.Board == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "results board disabled"})
		return
	}
	nums, err := a.Board.Recent(r.Context(), id)
	if err != nil {
		a.Log.Error("results board read failed", zap.String("table_id", id), zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "results unavailable"})
		return
	}
	render.JSON(w, r, resultsResponse{TableID: id, Numbers: nums})
}

// statusFor traduz o código de erro da resposta em status HTTP
func statusFor(reply dto.Reply) int {
	if reply.Error == nil {
		return http.StatusOK
	}
	switch reply.Error.Code {
	case dto.CodeInvalidSession:
		return http.StatusUnauthorized
	case dto.CodeBadRequest, dto.CodeUnknownCommand, dto.CodeInvalidBet:
		return http.StatusBadRequest
	case dto.CodeInsufficientFunds, dto.CodeNoBets, dto.CodeRoundInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
