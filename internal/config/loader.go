package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is the .env file read from the working directory.
const DefaultEnvFile = ".env"

type loadOptions struct {
	path    string
	envFile string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFile reads a YAML configuration file. A missing file is an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithEnvFile reads variables from a .env file other than DefaultEnvFile.
// An empty path disables .env loading.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// Load builds the configuration from defaults, the optional YAML file,
// the .env file and the environment, then validates it.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	if o.path != "" {
		if err := loadFile(o.path, cfg); err != nil {
			return nil, err
		}
	}

	if o.envFile != "" {
		// godotenv.Load keeps variables that are already set.
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &ParseError{Path: o.envFile, Message: err.Error(), Err: err}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ParseError{Path: path, Line: yamlErrorLine(err), Message: err.Error(), Err: err}
	}
	return nil
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// yamlErrorLine extracts the first line number yaml.v3 mentions in err.
func yamlErrorLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
