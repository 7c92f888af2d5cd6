package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dispatcher"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
	"github.com/radieske/roulette-table-poc/internal/roulette-service/ws"
)

type stubBoard struct {
	nums []int
	err  error
}

func (s stubBoard) Recent(_ context.Context, _ string) ([]int, error) { return s.nums, s.err }

type wireReply struct {
	Cmd     string          `json:"cmd"`
	Success bool            `json:"success"`
	Error   *dto.ErrorBody  `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newAPI(board ResultsBoard) *API {
	reg := roulette.NewRegistry(roulette.Table{
		StartingBankroll: 10000,
		Chips:            []int64{10, 25, 50, 100, 500},
	}, roulette.WithGenerator(roulette.NewFixedGenerator(17)))
	d := dispatcher.New(zap.NewNop(), reg, dispatcher.Options{TableID: "t1"})
	return &API{
		Log:        zap.NewNop(),
		Dispatcher: d,
		Hub:        ws.NewHub(zap.NewNop(), d, ws.AllowOrigins([]string{"*"})),
		Board:      board,
	}
}

func post(t *testing.T, h http.Handler, session, body string) (*httptest.ResponseRecorder, wireReply) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/commands", strings.NewReader(body))
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var reply wireReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply), rec.Body.String())
	return rec, reply
}

func TestCommandFlowOverHTTP(t *testing.T) {
	h := newAPI(nil).Router()

	rec, reply := post(t, h, "", `{"cmd":"login"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reply.Success)
	sid := rec.Header().Get(SessionHeader)
	require.Len(t, sid, 32)

	rec, reply = post(t, h, sid, `{"cmd":"place-bet","params":{"betType":"straight","numbers":[17],"amount":100}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reply.Success)
	assert.Equal(t, sid, rec.Header().Get(SessionHeader))

	rec, reply = post(t, h, sid, `{"cmd":"spin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var spin struct {
		TotalWinnings int64 `json:"totalWinnings"`
		Bankroll      int64 `json:"bankroll"`
	}
	require.NoError(t, json.Unmarshal(reply.Data, &spin))
	assert.EqualValues(t, 3600, spin.TotalWinnings)
	assert.EqualValues(t, 13500, spin.Bankroll)
}

func TestCommandErrorsMapToStatus(t *testing.T) {
	h := newAPI(nil).Router()

	rec, reply := post(t, h, "", `{"cmd":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.CodeBadRequest, reply.Error.Code)

	rec, reply = post(t, h, "nope", `{"cmd":"spin"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.CodeInvalidSession, reply.Error.Code)
	assert.Empty(t, rec.Header().Get(SessionHeader))

	rec, reply = post(t, h, "nope", `{"cmd":"keep-alive"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reply.Success)
	assert.Empty(t, rec.Header().Get(SessionHeader))

	rec, _ = post(t, h, "", `{"cmd":"login"}`)
	sid := rec.Header().Get(SessionHeader)

	rec, reply = post(t, h, sid, `{"cmd":"spin"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.CodeNoBets, reply.Error.Code)

	rec, reply = post(t, h, sid, `{"cmd":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.CodeUnknownCommand, reply.Error.Code)
}

func TestRecentResults(t *testing.T) {
	h := newAPI(stubBoard{nums: []int{32, 0, 17}}).Router()
	req := httptest.NewRequest(http.MethodGet, "/v1/tables/t1/results", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tableId":"t1","numbers":[32,0,17]}`, rec.Body.String())
}

func TestRecentResultsWithoutBoard(t *testing.T) {
	h := newAPI(nil).Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tables/t1/results", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = newAPI(stubBoard{err: errors.New("redis down")}).Router()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tables/t1/results", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
