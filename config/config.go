package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // console or json
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig selects the language-model backend and the model used per task.
type LLMConfig struct {
	Provider    string          `mapstructure:"provider"` // openai or gemini
	Temperature float64         `mapstructure:"temperature"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Models      LLMModelsConfig `mapstructure:"models"`
}

type OpenAIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LLMModelsConfig routes each capability to a model name.
type LLMModelsConfig struct {
	Extraction     string `mapstructure:"extraction"`
	Simplification string `mapstructure:"simplification"`
	Relevance      string `mapstructure:"relevance"`
	Alignment      string `mapstructure:"alignment"`
	Legal          string `mapstructure:"legal"`
}

// SourcesConfig contains search provider settings. Order lists the providers
// tried for each query; the first one returning results wins.
type SourcesConfig struct {
	Order      []string         `mapstructure:"order"`
	MaxResults int              `mapstructure:"max_results"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Retries    int              `mapstructure:"retries"`
	Serper     KeyedEndpoint    `mapstructure:"serper"`
	SerpAPI    KeyedEndpoint    `mapstructure:"serpapi"`
	Brave      KeyedEndpoint    `mapstructure:"brave"`
	NewsAPI    NewsAPIConfig    `mapstructure:"newsapi"`
	GoogleNews GoogleNewsConfig `mapstructure:"google_news"`
}

// KeyedEndpoint is an API key plus an optional endpoint override.
type KeyedEndpoint struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	DaysBack int    `mapstructure:"days_back"`
}

// GoogleNewsConfig controls the keyless Google News RSS search.
type GoogleNewsConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	HL       string `mapstructure:"hl"`
	GL       string `mapstructure:"gl"`
	CEID     string `mapstructure:"ceid"`
}

// PipelineConfig tunes the reconciliation pipeline.
type PipelineConfig struct {
	RelevanceThreshold int           `mapstructure:"relevance_threshold"`
	BatchSize          int           `mapstructure:"batch_size"`
	MaxConcurrency     int           `mapstructure:"max_concurrency"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	CallTimeout        time.Duration `mapstructure:"call_timeout"`
	GlobalRealign      bool          `mapstructure:"global_realign"`
}

// CacheConfig controls caching of search results.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // memory or redis
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
}

type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

var knownSources = map[string]struct{}{
	"serper":     {},
	"serpapi":    {},
	"newsapi":    {},
	"brave":      {},
	"googlenews": {},
}

// Normalize trims values and fills in defaults that viper could not express.
func (s SourcesConfig) Normalize() SourcesConfig {
	seen := make(map[string]struct{}, len(s.Order))
	order := make([]string, 0, len(s.Order))
	for _, name := range s.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}
	s.Order = order
	if s.MaxResults <= 0 {
		s.MaxResults = 8
	}
	if s.NewsAPI.DaysBack <= 0 {
		s.NewsAPI.DaysBack = 30
	}
	return s
}

func (s SourcesConfig) Validate() error {
	if len(s.Order) == 0 {
		return fmt.Errorf("sources.order must name at least one provider")
	}
	for _, name := range s.Order {
		if _, ok := knownSources[name]; !ok {
			return fmt.Errorf("sources.order: unknown provider %q", name)
		}
	}
	if s.Retries < 0 {
		return fmt.Errorf("sources.retries cannot be negative")
	}
	return nil
}

// defaultModels holds the per-provider model used when a task has none configured.
var defaultModels = map[string]LLMModelsConfig{
	"openai": {
		Extraction:     "gpt-3.5-turbo",
		Simplification: "gpt-4",
		Relevance:      "gpt-4",
		Alignment:      "gpt-4",
		Legal:          "gpt-4",
	},
	"gemini": {
		Extraction:     "gemini-1.5-flash",
		Simplification: "gemini-1.5-flash",
		Relevance:      "gemini-1.5-pro",
		Alignment:      "gemini-1.5-pro",
		Legal:          "gemini-1.5-flash",
	},
}

func (l LLMConfig) Normalize() LLMConfig {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	def := defaultModels[l.Provider]
	fill := func(v *string, d string) {
		if *v = strings.TrimSpace(*v); *v == "" {
			*v = d
		}
	}
	fill(&l.Models.Extraction, def.Extraction)
	fill(&l.Models.Simplification, def.Simplification)
	fill(&l.Models.Relevance, def.Relevance)
	fill(&l.Models.Alignment, def.Alignment)
	fill(&l.Models.Legal, def.Legal)
	return l
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be openai or gemini, got %q", l.Provider)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]")
	}
	if l.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("llm.openai.max_retries cannot be negative")
	}
	return nil
}

func (p PipelineConfig) Validate() error {
	if p.RelevanceThreshold < 0 || p.RelevanceThreshold > 100 {
		return fmt.Errorf("pipeline.relevance_threshold must be within [0,100]")
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be > 0")
	}
	if p.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be > 0")
	}
	if p.FetchTimeout <= 0 || p.CallTimeout <= 0 {
		return fmt.Errorf("pipeline timeouts must be > 0")
	}
	return nil
}

func (c CacheConfig) Normalize() CacheConfig {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = "memory"
	}
	return c
}

func (c CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Backend != "memory" && c.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when the cache is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_format", "console")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 5*time.Minute)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.timeout", 60*time.Second)
	v.SetDefault("llm.openai.max_retries", 2)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.models.extraction", "")
	v.SetDefault("llm.models.simplification", "")
	v.SetDefault("llm.models.relevance", "")
	v.SetDefault("llm.models.alignment", "")
	v.SetDefault("llm.models.legal", "")

	v.SetDefault("sources.order", []string{"serper", "newsapi"})
	v.SetDefault("sources.max_results", 8)
	v.SetDefault("sources.timeout", 15*time.Second)
	v.SetDefault("sources.retries", 1)
	v.SetDefault("sources.serper.api_key", "")
	v.SetDefault("sources.serper.endpoint", "https://google.serper.dev/search")
	v.SetDefault("sources.serpapi.api_key", "")
	v.SetDefault("sources.serpapi.endpoint", "https://serpapi.com/search.json")
	v.SetDefault("sources.brave.api_key", "")
	v.SetDefault("sources.brave.endpoint", "https://api.search.brave.com/res/v1/web/search")
	v.SetDefault("sources.newsapi.api_key", "")
	v.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	v.SetDefault("sources.newsapi.days_back", 30)
	v.SetDefault("sources.google_news.endpoint", "https://news.google.com/rss/search")
	v.SetDefault("sources.google_news.hl", "en-US")
	v.SetDefault("sources.google_news.gl", "US")
	v.SetDefault("sources.google_news.ceid", "US:en")

	v.SetDefault("pipeline.relevance_threshold", 80)
	v.SetDefault("pipeline.batch_size", 20)
	v.SetDefault("pipeline.max_concurrency", 4)
	v.SetDefault("pipeline.fetch_timeout", 20*time.Second)
	v.SetDefault("pipeline.call_timeout", 60*time.Second)
	v.SetDefault("pipeline.global_realign", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 6*time.Hour)
	v.SetDefault("cache.prefix", "sourcer:search:")

	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", 5*time.Second)

	v.SetDefault("telemetry.metrics_enabled", true)
}

// credentialEnv lets the conventional provider variables fill API keys.
var credentialEnv = map[string]string{
	"llm.openai.api_key":      "OPENAI_API_KEY",
	"llm.gemini.api_key":      "GEMINI_API_KEY",
	"sources.serper.api_key":  "SERPER_API_KEY",
	"sources.serpapi.api_key": "SERPAPI_KEY",
	"sources.brave.api_key":   "BRAVE_API_KEY",
	"sources.newsapi.api_key": "NEWSAPI_KEY",
}

// LoadConfig reads configuration from path (or the default search locations
// when path is empty), environment variables prefixed with SOURCER_, and the
// provider credential variables. A missing default config file is not an
// error; a missing explicit one is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SOURCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range credentialEnv {
		prefixed := "SOURCER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Sources = cfg.Sources.Normalize()
	cfg.Cache = cfg.Cache.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Sources.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.Cache.Enabled && c.Cache.Backend == "redis" {
		if err := c.Storage.Redis.Validate(); err != nil {
			return err
		}
	}
	return nil
}
