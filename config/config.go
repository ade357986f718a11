package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del paper trader.
// Se carga una vez al arrancar y se copia a los Config de cada componente.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner" toml:"scanner"`
	Trading TradingConfig `yaml:"trading" toml:"trading"`
	Sources SourcesConfig `yaml:"sources" toml:"sources"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Log     LogConfig     `yaml:"log"     toml:"log"`
}

// ScannerConfig controla el loop de scan.
type ScannerConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds"      toml:"interval_seconds"`
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" toml:"fetch_timeout_seconds"` // por source
}

// TradingConfig contiene el filtro de entrada, el sizing y las reglas de salida.
type TradingConfig struct {
	MinPrice      float64 `yaml:"min_price"      toml:"min_price"`
	MaxPrice      float64 `yaml:"max_price"      toml:"max_price"`
	MinLiquidity  float64 `yaml:"min_liquidity"  toml:"min_liquidity"`
	MinVolume24h  float64 `yaml:"min_volume_24h" toml:"min_volume_24h"`
	FeeRate       float64 `yaml:"fee_rate"       toml:"fee_rate"` // solo sobre el profit de trades ganadores
	PositionSize  float64 `yaml:"position_size"  toml:"position_size"`
	MaxPositions  int     `yaml:"max_positions"  toml:"max_positions"`
	WinThreshold  float64 `yaml:"win_threshold"  toml:"win_threshold"`
	LossThreshold float64 `yaml:"loss_threshold" toml:"loss_threshold"`
}

// SourcesConfig habilita cada venue y elige entre datos live o sintéticos.
type SourcesConfig struct {
	Polymarket PolymarketConfig `yaml:"polymarket" toml:"polymarket"`
	Kalshi     KalshiConfig     `yaml:"kalshi"     toml:"kalshi"`
	Seed       uint64           `yaml:"seed"       toml:"seed"` // semilla de los sources sintéticos
}

// PolymarketConfig configura el adapter de la Gamma API.
type PolymarketConfig struct {
	Enabled   bool   `yaml:"enabled"    toml:"enabled"`
	Demo      bool   `yaml:"demo"       toml:"demo"`
	GammaBase string `yaml:"gamma_base" toml:"gamma_base"`
	Limit     int    `yaml:"limit"      toml:"limit"`
}

// KalshiConfig configura el adapter de Kalshi. Sin credenciales las
// peticiones van sin firmar (solo datos públicos).
type KalshiConfig struct {
	Enabled        bool   `yaml:"enabled"          toml:"enabled"`
	Demo           bool   `yaml:"demo"             toml:"demo"`
	BaseURL        string `yaml:"base_url"         toml:"base_url"`
	APIKeyID       string `yaml:"api_key_id"       toml:"api_key_id"`
	PrivateKeyPath string `yaml:"private_key_path" toml:"private_key_path"`
	PrivateKey     string `yaml:"-"                toml:"-"` // PEM, solo desde env
	Limit          int    `yaml:"limit"            toml:"limit"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn" toml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"  toml:"level"`  // debug | info | warn | error
	Format string `yaml:"format" toml:"format"` // text | json
}

// Default devuelve la configuración por defecto: banda 0.97-0.98, fee 2%,
// $100 por posición, máximo 10 abiertas, salida en 0.99 / 0.80.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			IntervalSeconds:     60,
			FetchTimeoutSeconds: 15,
		},
		Trading: TradingConfig{
			MinPrice:      0.97,
			MaxPrice:      0.98,
			MinLiquidity:  1000,
			MinVolume24h:  500,
			FeeRate:       0.02,
			PositionSize:  100,
			MaxPositions:  10,
			WinThreshold:  0.99,
			LossThreshold: 0.80,
		},
		Sources: SourcesConfig{
			Polymarket: PolymarketConfig{Enabled: true, Limit: 200},
			Kalshi:     KalshiConfig{Enabled: true, Limit: 200},
			Seed:       1,
		},
		Storage: StorageConfig{DSN: "paper_trades.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load carga la configuración desde el archivo (YAML, o TOML si termina en
// .toml) sobre los defaults, y después el .env si existe.
// Las variables de entorno sobreescriben los valores del archivo.
// Si path está vacío se usan solo defaults + entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse TOML: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

// Validate rechaza combinaciones inconsistentes.
func (c *Config) Validate() error {
	t := c.Trading
	var errs []error
	if t.MinPrice <= 0 || t.MaxPrice > 1 || t.MinPrice > t.MaxPrice {
		errs = append(errs, fmt.Errorf("price band [%v, %v] must satisfy 0 < min <= max <= 1", t.MinPrice, t.MaxPrice))
	}
	if t.LossThreshold >= t.MinPrice || t.WinThreshold <= t.MaxPrice || t.WinThreshold > 1 {
		errs = append(errs, fmt.Errorf("thresholds must satisfy loss (%v) < band [%v, %v] < win (%v) <= 1",
			t.LossThreshold, t.MinPrice, t.MaxPrice, t.WinThreshold))
	}
	if t.FeeRate < 0 || t.FeeRate > 1 {
		errs = append(errs, fmt.Errorf("fee_rate %v must be in [0, 1]", t.FeeRate))
	}
	if t.PositionSize <= 0 {
		errs = append(errs, fmt.Errorf("position_size %v must be positive", t.PositionSize))
	}
	if t.MaxPositions <= 0 {
		errs = append(errs, fmt.Errorf("max_positions %d must be positive", t.MaxPositions))
	}
	if t.MinLiquidity < 0 || t.MinVolume24h < 0 {
		errs = append(errs, errors.New("min_liquidity and min_volume_24h must not be negative"))
	}
	return errors.Join(errs...)
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// FetchTimeout devuelve el timeout por source como time.Duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scanner.FetchTimeoutSeconds) * time.Second
}

// PrivateKeyPEM devuelve la clave RSA de Kalshi, desde el entorno o desde
// el archivo configurado. nil si no hay ninguna.
func (k KalshiConfig) PrivateKeyPEM() ([]byte, error) {
	if k.PrivateKey != "" {
		return []byte(k.PrivateKey), nil
	}
	if k.PrivateKeyPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(k.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("config.PrivateKeyPEM: read %q: %w", k.PrivateKeyPath, err)
	}
	return data, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("KALSHI_API_KEY_ID"); v != "" {
		cfg.Sources.Kalshi.APIKeyID = v
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY"); v != "" {
		// .env no admite saltos de línea reales; se aceptan como \n
		cfg.Sources.Kalshi.PrivateKey = strings.ReplaceAll(v, `\n`, "\n")
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY_PATH"); v != "" {
		cfg.Sources.Kalshi.PrivateKeyPath = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos
// aunque el archivo los deje vacíos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 60
	}
	if cfg.Scanner.FetchTimeoutSeconds <= 0 {
		cfg.Scanner.FetchTimeoutSeconds = 15
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "paper_trades.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
