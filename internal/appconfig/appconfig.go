// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests to the model host.
	defaultRequestTimeout = 600 * time.Second
	// defaultMaxAttempts is the per-question generation/recovery attempt budget.
	defaultMaxAttempts = 3
	// defaultChunkSize is the analyzer chunk window in characters.
	defaultChunkSize = 1000
	// defaultChunkOverlap is the analyzer chunk overlap in characters.
	defaultChunkOverlap = 150
	// defaultTopKText bounds retrieved prose chunks per question.
	defaultTopKText = 10
	// defaultTopKTable bounds retrieved table chunks per question.
	defaultTopKTable = 4
	// defaultChatSimilarityK bounds chat context chunks per question.
	defaultChatSimilarityK = 4
)

// Config represents the top-level application configuration.
type Config struct {
	Host           Host       `json:"host"`
	Model          string     `json:"model"`
	Parameters     Parameters `json:"parameters"`
	Analyzer       Analyzer   `json:"analyzer"`
	Chat           Chat       `json:"chat"`
	Debug          bool       `json:"debug"`
	TimeoutSeconds int        `json:"timeout,omitempty"`
	LogFile        string     `json:"logFile,omitempty"`
	ResultsDir     string     `json:"resultsDir,omitempty"`
	QuestionsPath  string     `json:"questionsPath,omitempty"`
	ConfigPath     string     `json:"-"`
}

// Host identifies the model host serving generation and embedding requests.
type Host struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Parameters defines the generation parameters sent with every model call.
// Determinism requires temperature 0, top_p 1, and a fixed seed; they are
// configuration rather than hardcoded so tests can substitute values.
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

// Analyzer holds retrieval and retry settings for the compliance pipeline.
type Analyzer struct {
	ChunkSize    int `json:"chunkSize"`
	ChunkOverlap int `json:"chunkOverlap"`
	TopKText     int `json:"topKText"`
	TopKTable    int `json:"topKTable"`
	MaxAttempts  int `json:"maxAttempts"`
}

// Chat holds settings for the document chat feature.
type Chat struct {
	EmbeddingModel string `json:"embeddingModel"`
	ChunkSize      int    `json:"chunkSize"`
	ChunkOverlap   int    `json:"chunkOverlap"`
	SimilarityK    int    `json:"similarityK"`
}

// RequestTimeout returns the timeout duration for model host requests,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "clausecheck.log"
}

// ResultsDirPath returns the directory where analysis reports are written.
func (c Config) ResultsDirPath() string {
	if dir := strings.TrimSpace(c.ResultsDir); dir != "" {
		return dir
	}
	return "results"
}

// MaxAttempts returns the per-question attempt budget, applying the default
// when the config omits the value.
func (a Analyzer) Attempts() int {
	if a.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return a.MaxAttempts
}

// Load reads the application configuration from the specified path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	if strings.TrimSpace(config.Host.URL) == "" {
		return Config{}, errors.New("config must set host.url")
	}
	if strings.TrimSpace(config.Model) == "" {
		return Config{}, errors.New("config must set model")
	}
	config.ConfigPath = path
	return config, nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	applyDefaults(&config)

	return config, nil
}

// applyDefaults fills zero values that have safe defaults. Chunk overlap is
// deliberately not clamped: an overlap >= chunk size is a configuration
// error the analyzer rejects before any model call.
func applyDefaults(config *Config) {
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if config.Analyzer.ChunkSize == 0 {
		config.Analyzer.ChunkSize = defaultChunkSize
		if config.Analyzer.ChunkOverlap == 0 {
			config.Analyzer.ChunkOverlap = defaultChunkOverlap
		}
	}
	if config.Analyzer.TopKText <= 0 {
		config.Analyzer.TopKText = defaultTopKText
	}
	if config.Analyzer.TopKTable <= 0 {
		config.Analyzer.TopKTable = defaultTopKTable
	}
	if config.Chat.ChunkSize <= 0 {
		config.Chat.ChunkSize = defaultChunkSize
	}
	if config.Chat.SimilarityK <= 0 {
		config.Chat.SimilarityK = defaultChatSimilarityK
	}
	if strings.TrimSpace(config.Chat.EmbeddingModel) == "" {
		config.Chat.EmbeddingModel = config.Model
	}
}
