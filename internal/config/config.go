// Package config loads bptreeidx's runtime settings from an optional YAML
// file, the same way novasql's internal/config.go does for the wider
// server.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// IndexConfig mirrors the fields cmd/ixbuild and cmd/ixscan need to open a
// relation and its index without repeating flag wiring in both binaries.
type IndexConfig struct {
	Storage struct {
		DataDir            string `mapstructure:"data_dir"`
		BufferPoolCapacity int    `mapstructure:"buffer_pool_capacity"`
	} `mapstructure:"storage"`
	Relation struct {
		Name           string `mapstructure:"name"`
		RecordSize     int    `mapstructure:"record_size"`
		AttrByteOffset int32  `mapstructure:"attr_byte_offset"`
		AttrType       string `mapstructure:"attr_type"`
	} `mapstructure:"relation"`
}

// Defaults returns the config a fresh install starts from; callers layer a
// config file and flags on top of this via Load.
func Defaults() *IndexConfig {
	cfg := &IndexConfig{}
	cfg.Storage.DataDir = "data/btreeidx"
	cfg.Storage.BufferPoolCapacity = 128
	cfg.Relation.AttrType = "int"
	return cfg
}

// Load reads path (if non-empty and present) over Defaults and returns the
// merged config. A missing path is not an error: both binaries run on
// defaults plus flags alone.
func Load(path string) (*IndexConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.buffer_pool_capacity", cfg.Storage.BufferPoolCapacity)
	v.SetDefault("relation.attr_type", cfg.Relation.AttrType)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
