// Package config defines the persistence layer configuration.
//
// Configuration is an explicit value handed to the facade constructor;
// there is no process-wide state. Load reads a YAML file and overlays it
// on the defaults, so a partial file only needs the keys it changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datakit-io/datakit/storage"
)

// Backend type names accepted in Storage.Type.
const (
	BackendLocal = "local"
	BackendAzure = "azure"
)

// Config is the full persistence layer configuration.
type Config struct {
	// DataDirectory is the directory under the project root that holds
	// all role directories (unless a call asks for root level).
	DataDirectory string `yaml:"data_directory"`

	// Directories maps a directory role to its physical directory name
	// under the data directory. Roles not present here map to their own
	// name.
	Directories map[string]string `yaml:"directories"`

	// CSVDelimiter is the field separator written by the CSV codec.
	// Loading still sniffs the delimiter, falling back to this value.
	CSVDelimiter string `yaml:"csv_delimiter"`

	// IncludeTimestamp controls whether saves embed a generation
	// timestamp in the file name. Nil means the default (true).
	IncludeTimestamp *bool `yaml:"include_timestamp"`

	// Storage selects and configures the backend.
	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	// Type is "local" or "azure".
	Type string `yaml:"type"`

	// Azure configures the remote backend; ignored for local storage.
	Azure AzureConfig `yaml:"azure"`
}

// AzureConfig configures the Azure Blob Storage backend.
type AzureConfig struct {
	// ConnectionString authenticates with a storage account connection
	// string. When empty, AccountURL with the default credential chain
	// is used instead.
	ConnectionString string `yaml:"connection_string"`

	// AccountURL is the blob service endpoint
	// (https://<account>.blob.core.windows.net) for credential-chain
	// authentication.
	AccountURL string `yaml:"account_url"`

	// ContainerMapping maps a directory role to a blob container name.
	// Roles without a mapping fail with a configuration error at first
	// use, not at construction.
	ContainerMapping map[string]string `yaml:"container_mapping"`

	// EnsureContainers creates the mapped containers at construction
	// time, best effort.
	EnsureContainers bool `yaml:"ensure_containers"`

	// Retry bounds retries of transient failures.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig is the YAML shape of the retry policy. Delays are seconds.
type RetryConfig struct {
	MaxRetries        int `yaml:"max_retries"`
	RetryDelaySeconds int `yaml:"retry_delay"`
	MaxDelaySeconds   int `yaml:"max_delay"`
}

// Policy converts the YAML shape to a storage.RetryPolicy.
func (r RetryConfig) Policy() storage.RetryPolicy {
	return storage.RetryPolicy{
		MaxRetries: r.MaxRetries,
		BaseDelay:  time.Duration(r.RetryDelaySeconds) * time.Second,
		MaxDelay:   time.Duration(r.MaxDelaySeconds) * time.Second,
	}
}

// Default returns the stock configuration: local storage, semicolon CSV
// delimiter, timestamping on, and the conventional role directories.
func Default() *Config {
	return &Config{
		DataDirectory: "data",
		Directories: map[string]string{
			string(storage.RoleRaw):            "raw",
			string(storage.RoleInterim):        "interim",
			string(storage.RoleProcessed):      "processed",
			string(storage.RoleConfigurations): "configurations",
			string(storage.RoleTemplates):      "templates",
		},
		CSVDelimiter: ";",
		Storage: StorageConfig{
			Type: BackendLocal,
			Azure: AzureConfig{
				ContainerMapping: map[string]string{
					string(storage.RoleRaw):            "raw-data",
					string(storage.RoleInterim):        "interim-data",
					string(storage.RoleProcessed):      "processed-data",
					string(storage.RoleConfigurations): "configurations",
					string(storage.RoleTemplates):      "templates",
				},
				Retry: RetryConfig{MaxRetries: 3, RetryDelaySeconds: 1, MaxDelaySeconds: 30},
			},
		},
	}
}

// Load reads a YAML configuration file and overlays it on the defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid config file %s: %v", storage.ErrConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no backend can work with.
func (c *Config) Validate() error {
	if c.DataDirectory == "" {
		return fmt.Errorf("%w: data_directory must not be empty", storage.ErrConfiguration)
	}
	switch c.Storage.Type {
	case BackendLocal, BackendAzure:
	default:
		return fmt.Errorf("%w: unknown storage type %q", storage.ErrConfiguration, c.Storage.Type)
	}
	if len(c.CSVDelimiter) > 1 {
		return fmt.Errorf("%w: csv_delimiter must be a single character", storage.ErrConfiguration)
	}
	if err := c.Storage.Azure.Retry.Policy().Validate(); err != nil {
		return err
	}
	return nil
}

// Timestamping reports whether saves embed a generation timestamp by
// default.
func (c *Config) Timestamping() bool {
	if c.IncludeTimestamp == nil {
		return true
	}
	return *c.IncludeTimestamp
}

// RoleDir returns the physical directory name for a role. Unmapped roles
// use the role name itself.
func (c *Config) RoleDir(role storage.Role) string {
	if dir, ok := c.Directories[string(role)]; ok {
		return dir
	}
	return string(role)
}

// Delimiter returns the configured CSV delimiter as a rune, defaulting
// to ';'.
func (c *Config) Delimiter() rune {
	if c.CSVDelimiter == "" {
		return ';'
	}
	return rune(c.CSVDelimiter[0])
}
