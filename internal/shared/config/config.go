package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	ctopics "github.com/radieske/roulette-table-poc/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução dos serviços
// Inclui parâmetros da mesa, conexões, tópicos, canais e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "roulette-service", "round-archiver"
	LogLevel    string // vazio usa o padrão do ambiente

	// Mesa
	StartingBankroll  int64         // centavos
	ChipDenominations []int64       // centavos, ordem crescente
	HistoryCapacity   int           // rodadas mantidas por sessão
	IdleTimeout       time.Duration // sessão sem atividade além disso é removida
	SweepInterval     time.Duration // período da varredura
	LegacyAutoSession bool          // enter-game cria sessão para identidade desconhecida
	TableID           string

	// WebSocket
	AllowedOrigins []string // "*" libera qualquer origem

	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string // "a:9092,b:9092"

	// Tópicos/canais
	TopicRoundSettled    string
	TopicRoundSettledDLQ string // vazio desliga a DLQ do archiver
	RedisResultsChannel  string
	ResultsBoardSize     int
	EventBuffer          int
	ArchiverGroupID      string

	// table-bot
	BotTableURL string
	BotRounds   int
	BotStake    int64

	// Portas do serviço atual
	HTTPPort    string // Porta pública (WebSocket + API de comandos)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega variáveis de ambiente e define defaults para cada serviço
// Valores inválidos caem no default
func Load() Config {
	svc := getEnv("SERVICE_NAME", "roulette-service")
	env := getEnv("ENV", "local")

	cfg := Config{
		Env:         env,
		ServiceName: svc,
		LogLevel:    getEnv("LOG_LEVEL", ""),

		StartingBankroll:  getInt64("STARTING_BANKROLL", 10000),
		ChipDenominations: getInt64List("CHIP_DENOMINATIONS", []int64{10, 25, 50, 100, 500}),
		HistoryCapacity:   int(getInt64("HISTORY_CAPACITY", 50)),
		IdleTimeout:       getDuration("IDLE_TIMEOUT", 30*time.Minute),
		SweepInterval:     getDuration("SWEEP_INTERVAL", time.Minute),
		LegacyAutoSession: getBool("LEGACY_AUTO_SESSION", false),
		TableID:           getEnv("TABLE_ID", "default"),

		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),

		// conexões externas vazias desabilitam o respectivo sink
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),

		TopicRoundSettled:    getEnv("KAFKA_TOPIC_ROUND_SETTLED", ctopics.RoundSettled),
		TopicRoundSettledDLQ: getEnv("KAFKA_TOPIC_ROUND_SETTLED_DLQ", ctopics.RoundSettledDLQ),
		RedisResultsChannel:  getEnv("REDIS_RESULTS_CHANNEL", "roulette_results_broadcast"),
		ResultsBoardSize:     int(getInt64("RESULTS_BOARD_SIZE", 12)),
		EventBuffer:          int(getInt64("EVENT_BUFFER", 1024)),
		ArchiverGroupID:      getEnv("ARCHIVER_GROUP_ID", "round-archiver"),

		BotTableURL: getEnv("TABLE_URL", "ws://localhost:8090/ws"),
		BotRounds:   int(getInt64("BOT_ROUNDS", 10)),
		BotStake:    getInt64("BOT_STAKE", 100),
	}

	// Define portas padrão para cada serviço
	switch svc {
	case "round-archiver":
		cfg.HTTPPort = getEnv("HTTP_PORT_ARCHIVER", "") // worker não expõe HTTP público
		cfg.MetricsPort = getEnv("METRICS_PORT_ARCHIVER", "9101")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "8090")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9100")
	}

	return cfg
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getList(key string, def []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// getInt64List lê uma lista de inteiros positivos separados por vírgula, ordenada
// Qualquer item inválido descarta a lista inteira
func getInt64List(key string, def []int64) []int64 {
	items := getList(key, nil)
	if items == nil {
		return def
	}
	out := make([]int64, 0, len(items))
	for _, it := range items {
		v, err := strconv.ParseInt(it, 10, 64)
		if err != nil || v <= 0 {
			return def
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
