package roulette

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sessionIDBytes garante 128 bits de entropia por identificador
const sessionIDBytes = 16

// Registry mapeia sessionId para Session; é a única estrutura compartilhada entre conexões
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	table Table
	gen   Generator
	now   func() time.Time
	log   *zap.Logger

	// OnEvict é chamado para cada sessão removida pela varredura (métricas)
	OnEvict func(id string)
}

// RegistryOption ajusta a construção do Registry
type RegistryOption func(*Registry)

// WithClock troca o relógio (testes)
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithGenerator troca o gerador de resultados
func WithGenerator(g Generator) RegistryOption {
	return func(r *Registry) { r.gen = g }
}

// WithLogger define o logger usado pela varredura
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(table Table, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		table:    table,
		gen:      NewCryptoGenerator(),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Table retorna os parâmetros da mesa
func (r *Registry) Table() Table { return r.table }

// Login cria uma sessão nova com a banca inicial configurada
func (r *Registry) Login() (*Session, error) {
	for {
		id, err := newSessionID()
		if err != nil {
			return nil, err
		}
		s := newSession(id, r.table, r.gen, r.now)

		r.mu.Lock()
		if _, exists := r.sessions[id]; exists {
			r.mu.Unlock()
			continue
		}
		r.sessions[id] = s
		r.mu.Unlock()
		return s, nil
	}
}

// Resolve busca a sessão sem marcar atividade
func (r *Registry) Resolve(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrInvalidSession
	}
	return s, nil
}

// Touch marca atividade numa sessão existente
func (r *Registry) Touch(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrInvalidSession
	}
	s.Touch(r.now())
	return nil
}

// Acquire resolve, marca atividade e registra um comando em andamento na sessão
// A varredura não remove sessões adquiridas; chame Release ao terminar
func (r *Registry) Acquire(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrInvalidSession
	}
	s.inflight.Add(1)
	s.Touch(r.now())
	return s, nil
}

// Release encerra um comando iniciado com Acquire
func (r *Registry) Release(s *Session) {
	s.Touch(r.now())
	s.inflight.Add(-1)
}

// Sweep remove as sessões com now - lastActivity > idle
// Sessões com comando em andamento são preservadas
func (r *Registry) Sweep(now time.Time, idle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, s := range r.sessions {
		if s.inflight.Load() > 0 {
			continue
		}
		if now.Sub(s.LastActivity()) > idle {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Len retorna a quantidade de sessões vivas
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RunSweeper executa Sweep a cada interval até o contexto ser cancelado
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			evicted := r.Sweep(r.now(), idle)
			for _, id := range evicted {
				if r.OnEvict != nil {
					r.OnEvict(id)
				}
			}
			if len(evicted) > 0 {
				r.log.Info("idle sessions evicted",
					zap.Int("evicted", len(evicted)),
					zap.Int("remaining", r.Len()),
				)
			}
		}
	}
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
