package metrics

import "github.com/prometheus/client_golang/prometheus"

// Roulette agrupa os coletores da mesa
type Roulette struct {
	SessionsActive  prometheus.Gauge
	SessionsEvicted prometheus.Counter
	Commands        *prometheus.CounterVec // labels: command, result
	Spins           prometheus.Counter
	WageredCents    prometheus.Counter
	PaidCents       prometheus.Counter
	EventsDropped   prometheus.Counter
	SinkErrors      *prometheus.CounterVec // labels: sink
}

// NewRoulette cria e registra os coletores em reg
func NewRoulette(reg prometheus.Registerer) *Roulette {
	m := &Roulette{
		SessionsActive:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "roulette_sessions_active", Help: "sessões vivas no registro"}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{Name: "roulette_sessions_evicted_total", Help: "sessões removidas por inatividade"}),
		Commands:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "roulette_commands_total", Help: "comandos despachados por resultado"}, []string{"command", "result"}),
		Spins:           prometheus.NewCounter(prometheus.CounterOpts{Name: "roulette_spins_total", Help: "rodadas liquidadas"}),
		WageredCents:    prometheus.NewCounter(prometheus.CounterOpts{Name: "roulette_wagered_cents_total", Help: "valor apostado em rodadas liquidadas"}),
		PaidCents:       prometheus.NewCounter(prometheus.CounterOpts{Name: "roulette_paid_cents_total", Help: "valor devolvido aos jogadores (aposta + prêmio)"}),
		EventsDropped:   prometheus.NewCounter(prometheus.CounterOpts{Name: "roulette_events_dropped_total", Help: "eventos de rodada descartados com buffer cheio"}),
		SinkErrors:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "roulette_sink_errors_total", Help: "falhas ao entregar eventos por sink"}, []string{"sink"}),
	}
	reg.MustRegister(
		m.SessionsActive,
		m.SessionsEvicted,
		m.Commands,
		m.Spins,
		m.WageredCents,
		m.PaidCents,
		m.EventsDropped,
		m.SinkErrors,
	)
	return m
}

// Archiver agrupa os coletores do worker de arquivamento
type Archiver struct {
	Consumed prometheus.Counter
	Persist  prometheus.Counter
	ErrorsBy *prometheus.CounterVec // labels: stage
}

func NewArchiver(reg prometheus.Registerer) *Archiver {
	m := &Archiver{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{Name: "round_archiver_messages_consumed_total", Help: "mensagens consumidas"}),
		Persist:  prometheus.NewCounter(prometheus.CounterOpts{Name: "round_archiver_db_writes_total", Help: "rodadas gravadas no banco"}),
		ErrorsBy: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "round_archiver_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.Consumed, m.Persist, m.ErrorsBy)
	return m
}
