package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Chunk tiling
	ChunkRows int `mapstructure:"chunk_rows" yaml:"chunk_rows"`
	ChunkCols int `mapstructure:"chunk_cols" yaml:"chunk_cols"`

	// Ingestion ceilings; files declaring more are rejected up front.
	MaxRows   int `mapstructure:"max_rows" yaml:"max_rows"`
	MaxCols   int `mapstructure:"max_cols" yaml:"max_cols"`
	MaxFileMB int `mapstructure:"max_file_mb" yaml:"max_file_mb"`

	// Viewport geometry (unzoomed pixels)
	RowHeight    float64 `mapstructure:"row_height" yaml:"row_height"`
	ColWidth     float64 `mapstructure:"col_width" yaml:"col_width"`
	OverscanRows int     `mapstructure:"overscan_rows" yaml:"overscan_rows"`
	OverscanCols int     `mapstructure:"overscan_cols" yaml:"overscan_cols"`

	// Chunk load deadline
	ChunkTimeoutMs int `mapstructure:"chunk_timeout_ms" yaml:"chunk_timeout_ms"`

	// Print layout
	PrintPageRows int `mapstructure:"print_page_rows" yaml:"print_page_rows"`
	PrintPageCols int `mapstructure:"print_page_cols" yaml:"print_page_cols"`
	PrintCellW    int `mapstructure:"print_cell_width" yaml:"print_cell_width"`
}

// ChunkTimeout converts the configured deadline to a duration.
func (c *Global) ChunkTimeout() time.Duration {
	return time.Duration(c.ChunkTimeoutMs) * time.Millisecond
}

// MaxFileBytes converts the configured size ceiling to bytes.
func (c *Global) MaxFileBytes() int64 {
	return int64(c.MaxFileMB) << 20
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.sheetview/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".sheetview")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETVIEW")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("chunk_rows", 256)
	v.SetDefault("chunk_cols", 64)
	v.SetDefault("max_rows", 1048576)
	v.SetDefault("max_cols", 16384)
	v.SetDefault("max_file_mb", 200)
	v.SetDefault("row_height", 20.0)
	v.SetDefault("col_width", 80.0)
	v.SetDefault("overscan_rows", 8)
	v.SetDefault("overscan_cols", 4)
	v.SetDefault("chunk_timeout_ms", 5000)
	v.SetDefault("print_page_rows", 48)
	v.SetDefault("print_page_cols", 8)
	v.SetDefault("print_cell_width", 14)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".sheetview")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
