package ws

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/roulette-table-poc/internal/roulette-service/dto"
)

const (
	maxFrameBytes    = 64 << 10
	writeWait        = 5 * time.Second
	defaultHeartbeat = 30 * time.Second
	cmdTimeSync      = "timesync"
)

// Dispatcher é o que o hub precisa do despachante de comandos
type Dispatcher interface {
	Dispatch(bound string, cmd dto.Command) (dto.Reply, string)
	Reject(err error) dto.Reply
}

// client é uma conexão aberta; guarda só a referência para a sessão, nunca o estado do jogo
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	tableID string // protegido por Hub.mu
}

func (c *client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub gerencia as conexões WebSocket da mesa
// Cada conexão tem um único loop de leitura: comandos são atendidos em ordem de chegada
type Hub struct {
	upgrader websocket.Upgrader
	d        Dispatcher
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	// Heartbeat é o intervalo do timesync enviado ao cliente
	Heartbeat time.Duration
}

// NewHub cria o hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, d Dispatcher, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader:  websocket.Upgrader{CheckOrigin: allowOrigin},
		d:         d,
		log:       log,
		clients:   make(map[*client]struct{}),
		Heartbeat: defaultHeartbeat,
	}
}

// AllowOrigins monta o CheckOrigin a partir da lista configurada; "*" libera tudo
// Requisições sem Origin (clientes fora do navegador) são aceitas
func AllowOrigins(origins []string) func(r *http.Request) bool {
	all := slices.Contains(origins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return all || origin == "" || slices.Contains(origins, origin)
	}
}

// HandleWS atende uma conexão: cada frame vira um comando e gera exatamente uma resposta
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.heartbeat(c, done)

	var sessionID string
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var reply dto.Reply
		cmd, err := dto.Decode(raw)
		if err != nil {
			reply = h.d.Reject(err)
		} else {
			reply, sessionID = h.d.Dispatch(sessionID, cmd)
			if cfg, ok := reply.Data.(dto.GameConfig); ok && reply.Success {
				h.join(c, cfg.TableID)
			}
		}

		if err := c.write(reply); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			break
		}
	}

	close(done)
	// a sessão continua viva no registro até expirar: reconectar com o mesmo id retoma o jogo
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) join(c *client, tableID string) {
	h.mu.Lock()
	c.tableID = tableID
	h.mu.Unlock()
}

func (h *Hub) heartbeat(c *client, done <-chan struct{}) {
	t := time.NewTicker(h.Heartbeat)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-t.C:
			msg := dto.OK(cmdTimeSync, dto.TimeSyncData{ServerTime: now.UnixMilli()})
			if err := c.write(msg); err != nil {
				return
			}
		}
	}
}

// Broadcast envia msg a todas as conexões que entraram na mesa tableID
func (h *Hub) Broadcast(tableID string, msg any) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.tableID == tableID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.write(msg)
	}
}

// Len retorna a quantidade de conexões abertas
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
