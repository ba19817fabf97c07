package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logger"
)

var validate = validator.New()

type Config struct {
	Port          int                 `json:"port" validate:"gt=0,lt=65536"`
	LogConfig     logger.LogConfig    `json:"log_config"`
	ArtifactStore ArtifactStoreConfig `json:"artifact_store"`
	Embedding     EmbeddingConfig     `json:"embedding"`
	Classifier    ClassifierConfig    `json:"classifier"`
	Dataset       DatasetConfig       `json:"dataset"`
	Insights      InsightsConfig      `json:"insights"`
	EagerLoad     bool                `json:"eager_load"`
	RateLimitMS   int                 `json:"rate_limit_ms" validate:"gte=0"`
	CORSAllowlist []string            `json:"cors_allowlist" validate:"dive,required"`
}

type ArtifactStoreConfig struct {
	Type string   `json:"type" validate:"oneof=local s3"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type EmbeddingConfig struct {
	Provider          string `json:"provider" validate:"oneof=wordvec hashing"`
	Model             string `json:"model"`
	Path              string `json:"path"`
	Dim               int    `json:"dim" validate:"gte=0"`
	LowercaseFallback bool   `json:"lowercase_fallback"`
}

type ClassifierConfig struct {
	Path      string  `json:"path" validate:"required"`
	Threshold float64 `json:"threshold" validate:"gt=0,lt=1"`
}

type DatasetConfig struct {
	Path        string `json:"path" validate:"required"`
	Sheet       string `json:"sheet"`
	TextColumn  string `json:"text_column" validate:"required"`
	LabelColumn string `json:"label_column" validate:"required"`
}

type InsightsConfig struct {
	TopN             int  `json:"top_n" validate:"gt=0"`
	Lowercase        bool `json:"lowercase"`
	StripPunctuation bool `json:"strip_punctuation"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8501
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.ArtifactStore.Type == "" {
		cfg.ArtifactStore.Type = "local"
	}
	cfg.ArtifactStore.Type = strings.ToLower(strings.TrimSpace(cfg.ArtifactStore.Type))
	if cfg.ArtifactStore.Type == "s3" && cfg.ArtifactStore.S3.Region == "" {
		cfg.ArtifactStore.S3.Region = "us-east-1"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "wordvec"
	}
	cfg.Embedding.Provider = strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider))
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "en_core_web_md"
	}
	if cfg.Classifier.Path == "" {
		cfg.Classifier.Path = "xgboost_model_11122023.json"
	}
	if cfg.Classifier.Threshold == 0 {
		cfg.Classifier.Threshold = 0.5
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "Labelled_Windows_Cmd.xlsx"
	}
	if cfg.Dataset.TextColumn == "" {
		cfg.Dataset.TextColumn = "prompt"
	}
	if cfg.Dataset.LabelColumn == "" {
		cfg.Dataset.LabelColumn = "is_malicious"
	}
	if cfg.Insights.TopN == 0 {
		cfg.Insights.TopN = 10
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	switch c.Embedding.Provider {
	case "wordvec":
		if c.Embedding.Path == "" {
			return fmt.Errorf("embedding.path is required for wordvec provider")
		}
	case "hashing":
		if c.Embedding.Dim <= 0 {
			return fmt.Errorf("embedding.dim is required for hashing provider")
		}
	}
	if c.ArtifactStore.Type == "s3" {
		s3 := c.ArtifactStore.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.SecretID == "" || s3.SecretKey == "" {
			return fmt.Errorf("artifact_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
	}
	return nil
}
