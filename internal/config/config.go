// Package config provides environment-variable driven configuration
// for the wap-backend core, following spec.md §6's environment table.
// Absence of a sensitive value disables the subsystem it gates rather
// than failing startup, per spec.md §6.
package config

import "github.com/kelseyhightower/envconfig"

// Config aggregates every subsystem's settings. Nested structs group
// variables by the external dependency they configure.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTP HTTPConfig
	Store StoreConfig
	Vector VectorConfig
	Embedding EmbeddingConfig
	Cache CacheConfig
	Email EmailConfig

	AppURL string `envconfig:"APP_URL" default:"http://localhost:3000"`
}

// HTTPConfig configures the REST API listener.
type HTTPConfig struct {
	ListenAddr string `envconfig:"HTTP_LISTEN_ADDR" default:":8080"`
}

// StoreConfig configures the document store. spec.md §6 names
// COSMOS_ENDPOINT/KEY/DATABASE/CONTAINER for the original's Cosmos DB
// backend; this repo's document store is realized as embedded SQLite
// (see SPEC_FULL.md Open Questions), so STORE_DSN is its analogue.
type StoreConfig struct {
	DSN string `envconfig:"STORE_DSN" default:"./data/wap.db"`

	CosmosEndpoint  string `envconfig:"COSMOS_ENDPOINT"`
	CosmosKey       string `envconfig:"COSMOS_KEY"`
	CosmosDatabase  string `envconfig:"COSMOS_DATABASE"`
	CosmosContainer string `envconfig:"COSMOS_CONTAINER"`
}

// VectorConfig configures the vector index adapter (spec §4.1). The
// Azure Search variables from spec §6 are retained for interface
// compatibility; Addr is the Qdrant-specific analogue actually
// dialed by internal/vectorindex.
type VectorConfig struct {
	Addr       string `envconfig:"VECTOR_ADDR" default:"localhost:6334"`
	APIKey     string `envconfig:"VECTOR_API_KEY"`
	Collection string `envconfig:"VECTOR_COLLECTION" default:"wap_profiles"`
	Dimension  int    `envconfig:"VECTOR_DIM" default:"1536"`

	AzureSearchEndpoint string `envconfig:"AZURE_SEARCH_ENDPOINT"`
	AzureSearchAPIKey   string `envconfig:"AZURE_SEARCH_API_KEY"`
	AzureSearchIndex    string `envconfig:"AZURE_SEARCH_INDEX"`
}

// EmbeddingConfig configures the text-to-vector client (spec §4.1).
type EmbeddingConfig struct {
	Endpoint        string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	APIKey          string `envconfig:"AZURE_OPENAI_API_KEY"`
	APIVersion      string `envconfig:"AZURE_OPENAI_API_VERSION" default:"2024-06-01"`
	DeploymentName  string `envconfig:"EMBEDDING_DEPLOYMENT_NAME" default:"text-embedding-3-small"`
	Dimension       int    `envconfig:"VECTOR_DIM" default:"1536"`
}

// Enabled reports whether the embedding provider has credentials.
func (c EmbeddingConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// CacheConfig configures the read-through cache layer (spec §4.1 Cache layer).
type CacheConfig struct {
	URL      string `envconfig:"REDIS_URL"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// EmailConfig configures the transactional email notifier (spec §4.1/§4.7).
type EmailConfig struct {
	Enabled   bool   `envconfig:"EMAIL_ENABLED" default:"false"`
	APIKey    string `envconfig:"SENDGRID_API_KEY"`
	FromAddr  string `envconfig:"EMAIL_FROM" default:"noreply@example.com"`
}

// Load reads configuration from the environment, applying struct-tag
// defaults for anything unset. It never fails on missing optional
// values — callers gate subsystem construction on each config's own
// Enabled()-style checks, per spec.md §6.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
