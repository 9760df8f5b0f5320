package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"minipack/internal/emitter"
	"minipack/internal/extractor"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root  string `yaml:"root"`
		Entry string `yaml:"entry"`
	} `yaml:"project"`
	Output struct {
		Dir        string `yaml:"dir"`
		File       string `yaml:"file"`
		Format     string `yaml:"format"`      // "closure" or "json"
		GlobalName string `yaml:"global_name"` // optional var the entry exports are assigned to
	} `yaml:"output"`
	Transform struct {
		Target string `yaml:"target"`
	} `yaml:"transform"`
	Resolve struct {
		Extensions []string `yaml:"extensions"`
	} `yaml:"resolve"`
	Storage struct {
		Path string `yaml:"path"` // SQLite build manifest; empty disables it
	} `yaml:"storage"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Project.Entry = "./src/index.js"
	cfg.Output.Dir = "./dist"
	cfg.Output.File = "bundle.js"
	cfg.Output.Format = string(emitter.FormatClosure)
	cfg.Transform.Target = "es2015"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if entry := os.Getenv("MINIPACK_ENTRY"); entry != "" {
		cfg.Project.Entry = entry
	}
	if root := os.Getenv("MINIPACK_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if outDir := os.Getenv("MINIPACK_OUT_DIR"); outDir != "" {
		cfg.Output.Dir = outDir
	}
	if level := os.Getenv("MINIPACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if db := os.Getenv("MINIPACK_DB"); db != "" {
		cfg.Storage.Path = db
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the build cannot honor.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.Entry) == "" {
		return fmt.Errorf("project.entry is required")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file is required")
	}
	if _, err := emitter.NewEmitter(c.EmitOptions()); err != nil {
		return err
	}
	if _, err := extractor.ParseTarget(c.Transform.Target); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Log.Format)
	}
	for _, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("resolve extension %q must start with a dot", ext)
		}
	}
	return nil
}

// EmitOptions maps the output section onto emitter options.
func (c *Config) EmitOptions() emitter.Options {
	return emitter.Options{
		Format:     emitter.Format(c.Output.Format),
		GlobalName: c.Output.GlobalName,
	}
}
