package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/danielpatrickdp/stress-dost/internal/meter"
)

// EnvPrefix prefixes every environment override, e.g. STRESSDOST_SERVER_ADDR.
const EnvPrefix = "STRESSDOST"

// #region config

// Config is the full server configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Data        DataConfig        `mapstructure:"data"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Content     ContentConfig     `mapstructure:"content"`
	Session     SessionConfig     `mapstructure:"session"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// StorageConfig covers the SQLite audit store and the optional Redis sink.
type StorageConfig struct {
	DBPath       string `mapstructure:"db_path"`
	RedisAddr    string `mapstructure:"redis_addr"` // empty disables the Redis sink
	RedisKey     string `mapstructure:"redis_key"`
	RedisMaxRows int    `mapstructure:"redis_max_rows"`
}

// GeneratorConfig is the popup generation service.
type GeneratorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"` // empty disables generation
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Model   string        `mapstructure:"model"`
}

// DataConfig points at the static inputs.
type DataConfig struct {
	QuizPath      string `mapstructure:"quiz_path"`
	DatasetPath   string `mapstructure:"dataset_path"`
	QuestionIDs   string `mapstructure:"question_ids"` // CSV with a question_id column
	QuestionLimit int    `mapstructure:"question_limit"`
}

// CalibrationConfig is the default student calibration.
type CalibrationConfig struct {
	BaselineReactionTime float64 `mapstructure:"baseline_reaction_time"`
	AccuracyBaseline     float64 `mapstructure:"accuracy_baseline"`
	AnxietyLevel         string  `mapstructure:"anxiety_level"`
	ProcessingSpeed      string  `mapstructure:"processing_speed"`
}

// ContentConfig is the main question API.
type ContentConfig struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Concurrency int           `mapstructure:"concurrency"`
}

// SessionConfig bounds the live session store.
type SessionConfig struct {
	MaxSessions    int           `mapstructure:"max_sessions"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	MeterThreshold float64       `mapstructure:"meter_threshold"`
	Seed           uint64        `mapstructure:"seed"` // 0 seeds from the clock
}

// LogConfig is the zap setup.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
}

// #endregion

// #region defaults

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:       "data/stressdost.db",
			RedisKey:     "stressdost:responses",
			RedisMaxRows: 10000,
		},
		Generator: GeneratorConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
			Retries: 1,
			Model:   "mixtral-8x7b-32768",
		},
		Data: DataConfig{
			QuizPath:      "data/personality_quiz.json",
			DatasetPath:   "data/popups.json",
			QuestionIDs:   "data/question_ids.csv",
			QuestionLimit: 10,
		},
		Calibration: CalibrationConfig{
			BaselineReactionTime: 3.0,
			AccuracyBaseline:     0.7,
			AnxietyLevel:         "moderate",
			ProcessingSpeed:      string(meter.SpeedNormal),
		},
		Content: ContentConfig{
			URL:         "https://api.acadza.in/question/details",
			Timeout:     10 * time.Second,
			CacheTTL:    time.Hour,
			Concurrency: 4,
		},
		Session: SessionConfig{
			MaxSessions:    1000,
			IdleTimeout:    2 * time.Hour,
			SweepInterval:  5 * time.Minute,
			MeterThreshold: 0.8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// #endregion

// #region load

// Load reads .env (if present), then the optional YAML file at path, then
// STRESSDOST_* environment overrides, on top of DefaultConfig.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.enable_cors", d.Server.EnableCORS)

	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_key", d.Storage.RedisKey)
	v.SetDefault("storage.redis_max_rows", d.Storage.RedisMaxRows)

	v.SetDefault("generator.enabled", d.Generator.Enabled)
	v.SetDefault("generator.addr", d.Generator.Addr)
	v.SetDefault("generator.timeout", d.Generator.Timeout)
	v.SetDefault("generator.retries", d.Generator.Retries)
	v.SetDefault("generator.model", d.Generator.Model)

	v.SetDefault("data.quiz_path", d.Data.QuizPath)
	v.SetDefault("data.dataset_path", d.Data.DatasetPath)
	v.SetDefault("data.question_ids", d.Data.QuestionIDs)
	v.SetDefault("data.question_limit", d.Data.QuestionLimit)

	v.SetDefault("calibration.baseline_reaction_time", d.Calibration.BaselineReactionTime)
	v.SetDefault("calibration.accuracy_baseline", d.Calibration.AccuracyBaseline)
	v.SetDefault("calibration.anxiety_level", d.Calibration.AnxietyLevel)
	v.SetDefault("calibration.processing_speed", d.Calibration.ProcessingSpeed)

	v.SetDefault("content.url", d.Content.URL)
	v.SetDefault("content.timeout", d.Content.Timeout)
	v.SetDefault("content.cache_ttl", d.Content.CacheTTL)
	v.SetDefault("content.concurrency", d.Content.Concurrency)

	v.SetDefault("session.max_sessions", d.Session.MaxSessions)
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("session.sweep_interval", d.Session.SweepInterval)
	v.SetDefault("session.meter_threshold", d.Session.MeterThreshold)
	v.SetDefault("session.seed", d.Session.Seed)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dev", d.Log.Dev)
}

// #endregion

// #region validate

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be positive, got %d", c.Session.MaxSessions)
	}
	if c.Session.MeterThreshold <= 0 || c.Session.MeterThreshold > 1 {
		return fmt.Errorf("session.meter_threshold must be in (0,1], got %.2f", c.Session.MeterThreshold)
	}
	if c.Calibration.BaselineReactionTime <= 0 {
		return fmt.Errorf("calibration.baseline_reaction_time must be positive, got %.2f", c.Calibration.BaselineReactionTime)
	}
	switch meter.ProcessingSpeed(c.Calibration.ProcessingSpeed) {
	case meter.SpeedFast, meter.SpeedNormal, meter.SpeedSlow:
	default:
		return fmt.Errorf("calibration.processing_speed %q is not fast, normal or slow", c.Calibration.ProcessingSpeed)
	}
	if c.Data.QuizPath == "" || c.Data.DatasetPath == "" {
		return errors.New("data.quiz_path and data.dataset_path are required")
	}
	return nil
}

// MeterCalibration converts the calibration block for the meter engine.
func (c Config) MeterCalibration() meter.Calibration {
	return meter.Calibration{
		BaselineReactionTime: c.Calibration.BaselineReactionTime,
		AccuracyBaseline:     c.Calibration.AccuracyBaseline,
		AnxietyLevel:         c.Calibration.AnxietyLevel,
		ProcessingSpeed:      meter.ProcessingSpeed(c.Calibration.ProcessingSpeed),
	}
}

// #endregion
