package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de intrabot.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Feed    FeedConfig    `yaml:"feed"`
	Scanner ScannerConfig `yaml:"scanner"`
	Options OptionsConfig `yaml:"options"`
	Risk    RiskConfig    `yaml:"risk"`
	Storage StorageConfig `yaml:"storage"`
	ML      MLConfig      `yaml:"ml"`
	Service ServiceConfig `yaml:"service"`
	Tier    TierConfig    `yaml:"tier"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// FeedConfig controla el throttling del feed de precios y sus fuentes.
type FeedConfig struct {
	PollIntervalMs   int    `yaml:"poll_interval_ms"`   // throttle por símbolo en modo live
	ScanPriceTTLSecs int    `yaml:"scan_price_ttl_s"`   // TTL de precio en contexto de scan
	SeriesTTLSecs    int    `yaml:"series_ttl_s"`       // TTL de la serie intradía
	ServiceBase      string `yaml:"service_base"`       // daemon de precios compartido
	ServiceTimeoutMs int    `yaml:"service_timeout_ms"` // timeout de la fuente primaria
}

// ScannerConfig controla el scanner de watchlist y el modo watch.
type ScannerConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"` // periodo del loop en modo watch
	Workers         int    `yaml:"workers"`          // fetches concurrentes por batch
	Strategy        string `yaml:"strategy"`         // ORB | VWAP_MEAN_REVERSION
	Direction       string `yaml:"direction"`        // LONG | SHORT
	WatchlistSize   int    `yaml:"watchlist_size"`   // símbolos del watchlist diario
	Universe        string `yaml:"universe"`         // índice origen del watchlist
}

// OptionsConfig controla el contexto del option chain.
type OptionsConfig struct {
	Index    string `yaml:"index"`     // índice del chain (NIFTY)
	ATMWidth int    `yaml:"atm_width"` // strikes a cada lado del ATM
}

// RiskConfig son los límites duros del día.
type RiskConfig struct {
	MaxTrades    int     `yaml:"max_trades"`
	MaxDailyLoss float64 `yaml:"max_daily_loss"`
}

// StorageConfig controla dónde y cómo se persisten los trades.
type StorageConfig struct {
	Backend string `yaml:"backend"` // sqlite | csv
	DSN     string `yaml:"dsn"`     // ruta al archivo SQLite, o ":memory:"
	CSVDir  string `yaml:"csv_dir"` // directorio de particiones {fecha}.csv
}

// MLConfig controla el scorer consultivo.
type MLConfig struct {
	Enabled     bool   `yaml:"enabled"`
	WeightsPath string `yaml:"weights_path"` // JSON con pesos del modelo logístico
}

// ServiceConfig controla el daemon de precios compartido.
type ServiceConfig struct {
	Listen       string `yaml:"listen"`      // addr del daemon, ej ":8000"
	CacheTTLSecs int    `yaml:"cache_ttl_s"` // TTL del cache compartido de precios
}

// TierConfig fija el tier de suscripción de la sesión.
type TierConfig struct {
	Name string `yaml:"name"` // FREE | BASIC | PRO | ELITE
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben el YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración sin archivo YAML: solo .env, entorno y
// defaults. Para arranques sin config en disco.
func Default() *Config {
	_ = godotenv.Load()
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// PollInterval devuelve el throttle por símbolo como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalMs) * time.Millisecond
}

// ScanPriceTTL devuelve el TTL de precio en contexto de scan.
func (c *Config) ScanPriceTTL() time.Duration {
	return time.Duration(c.Feed.ScanPriceTTLSecs) * time.Second
}

// SeriesTTL devuelve el TTL de la serie intradía.
func (c *Config) SeriesTTL() time.Duration {
	return time.Duration(c.Feed.SeriesTTLSecs) * time.Second
}

// ServiceTimeout devuelve el timeout de la fuente primaria.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Feed.ServiceTimeoutMs) * time.Millisecond
}

// ScanInterval devuelve el periodo del loop del modo watch.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("INTRABOT_SERVICE_BASE"); v != "" {
		cfg.Feed.ServiceBase = v
	}
	if v := os.Getenv("INTRABOT_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("INTRABOT_TIER"); v != "" {
		cfg.Tier.Name = v
	}
	if v := os.Getenv("INTRABOT_ML_WEIGHTS"); v != "" {
		cfg.ML.WeightsPath = v
	}
	if v := os.Getenv("INTRABOT_LISTEN"); v != "" {
		cfg.Service.Listen = v
	}
	if v, err := strconv.Atoi(os.Getenv("INTRABOT_SCAN_WORKERS")); err == nil && v > 0 {
		cfg.Scanner.Workers = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Feed.PollIntervalMs <= 0 {
		cfg.Feed.PollIntervalMs = 1500 // 1.5s por símbolo en live
	}
	if cfg.Feed.ScanPriceTTLSecs <= 0 {
		cfg.Feed.ScanPriceTTLSecs = 3
	}
	if cfg.Feed.SeriesTTLSecs <= 0 {
		cfg.Feed.SeriesTTLSecs = 30
	}
	if cfg.Feed.ServiceBase == "" {
		cfg.Feed.ServiceBase = "http://127.0.0.1:8000"
	}
	if cfg.Feed.ServiceTimeoutMs <= 0 {
		cfg.Feed.ServiceTimeoutMs = 800
	}
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 20
	}
	if cfg.Scanner.Workers <= 0 {
		cfg.Scanner.Workers = 5
	}
	if cfg.Scanner.Strategy == "" {
		cfg.Scanner.Strategy = "ORB"
	}
	if cfg.Scanner.Direction == "" {
		cfg.Scanner.Direction = "LONG"
	}
	if cfg.Scanner.WatchlistSize <= 0 {
		cfg.Scanner.WatchlistSize = 5
	}
	if cfg.Scanner.Universe == "" {
		cfg.Scanner.Universe = "NIFTY 50"
	}
	if cfg.Options.Index == "" {
		cfg.Options.Index = "NIFTY"
	}
	if cfg.Options.ATMWidth <= 0 {
		cfg.Options.ATMWidth = 3
	}
	if cfg.Risk.MaxTrades <= 0 {
		cfg.Risk.MaxTrades = 10
	}
	if cfg.Risk.MaxDailyLoss <= 0 {
		cfg.Risk.MaxDailyLoss = 5000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "intrabot.db"
	}
	if cfg.Storage.CSVDir == "" {
		cfg.Storage.CSVDir = "data/paper_trades"
	}
	if cfg.ML.WeightsPath == "" {
		cfg.ML.WeightsPath = "ml/setup_quality.json"
	}
	if cfg.Service.Listen == "" {
		cfg.Service.Listen = ":8000"
	}
	if cfg.Service.CacheTTLSecs <= 0 {
		cfg.Service.CacheTTLSecs = 2
	}
	if cfg.Tier.Name == "" {
		cfg.Tier.Name = "FREE"
	}
}
