// Package config loads the hackfind YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/hackfind/ai"
	"github.com/poiesic/hackfind/search"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDataDir        = "HACKFIND_DATA_DIR"
	EnvEmbeddingHost  = "HACKFIND_EMBEDDING_HOST"
	EnvEmbeddingModel = "HACKFIND_EMBEDDING_MODEL"
)

type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type Embedding struct {
	Host      string        `yaml:"host"`
	Model     string        `yaml:"model"`
	APIToken  string        `yaml:"api_token"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int64         `yaml:"cache_size"`
}

type Ranker struct {
	SemanticTopN     int           `yaml:"semantic_top_n"`
	LexicalTopN      int           `yaml:"lexical_top_n"`
	TopK             int           `yaml:"top_k"`
	AgreementBoost   float64       `yaml:"agreement_boost"`
	LexicalBaseline  float64       `yaml:"lexical_baseline"`
	DegradeToLexical bool          `yaml:"degrade_to_lexical"`
	EmbedTimeout     time.Duration `yaml:"embed_timeout"`
	StoreTimeout     time.Duration `yaml:"store_timeout"`
}

type Freshness struct {
	MaxAge time.Duration `yaml:"max_age"`
}

type Retention struct {
	Days int `yaml:"days"`
}

type Ingestion struct {
	PoolSize int    `yaml:"pool_size"`
	Dir      string `yaml:"dir"` // Scraper dumps, one <source>.json per source
}

type Config struct {
	DataDir   string    `yaml:"data_dir"`
	Server    Server    `yaml:"server"`
	Embedding Embedding `yaml:"embedding"`
	Ranker    Ranker    `yaml:"ranker"`
	Freshness Freshness `yaml:"freshness"`
	Retention Retention `yaml:"retention"`
	Ingestion Ingestion `yaml:"ingestion"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	rk := search.DefaultConfig()
	return &Config{
		DataDir: "./data",
		Server: Server{
			Addr:         ":8000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Embedding: Embedding{
			Host:      aiCfg.EmbeddingHost,
			Model:     aiCfg.EmbeddingModel,
			APIToken:  aiCfg.APIToken,
			Timeout:   aiCfg.Timeout,
			CacheSize: aiCfg.CacheSize,
		},
		Ranker: Ranker{
			SemanticTopN:     rk.SemanticTopN,
			LexicalTopN:      rk.LexicalTopN,
			TopK:             rk.TopK,
			AgreementBoost:   rk.AgreementBoost,
			LexicalBaseline:  rk.LexicalBaseline,
			DegradeToLexical: rk.DegradeToLexical,
			EmbedTimeout:     rk.EmbedTimeout,
			StoreTimeout:     rk.StoreTimeout,
		},
		Freshness: Freshness{MaxAge: 6 * time.Hour},
		Retention: Retention{Days: 90},
		Ingestion: Ingestion{PoolSize: 4, Dir: "./scraped"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.Embedding.Host = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
}

// Validate checks the values no component can run without.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Freshness.MaxAge <= 0 {
		errs = append(errs, errors.New("freshness.max_age must be positive"))
	}
	if c.Retention.Days < 0 {
		errs = append(errs, errors.New("retention.days cannot be negative"))
	}
	if c.Ingestion.PoolSize < 0 {
		errs = append(errs, errors.New("ingestion.pool_size cannot be negative"))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.RankerConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// AIConfig converts the embedding section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIToken(c.Embedding.APIToken),
		ai.WithTimeout(c.Embedding.Timeout),
		ai.WithCacheSize(c.Embedding.CacheSize),
	)
}

// RankerConfig converts the ranker section into a search.Config.
func (c *Config) RankerConfig() search.Config {
	return search.Config{
		SemanticTopN:     c.Ranker.SemanticTopN,
		LexicalTopN:      c.Ranker.LexicalTopN,
		TopK:             c.Ranker.TopK,
		AgreementBoost:   c.Ranker.AgreementBoost,
		LexicalBaseline:  c.Ranker.LexicalBaseline,
		DegradeToLexical: c.Ranker.DegradeToLexical,
		EmbedTimeout:     c.Ranker.EmbedTimeout,
		StoreTimeout:     c.Ranker.StoreTimeout,
	}
}
