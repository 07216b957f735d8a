package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/depthsim/logging"
)

// Read reads a config from the given file, substituting environment variables first.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := Config{
		ConfigFilePath: originalPath,
	}

	switch strings.ToLower(filepath.Ext(originalPath)) {
	case ".yaml", ".yml":
		if err := decodeYAML(r, &cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode Config from yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode Config from json")
		}
	}

	if err := cfg.Ensure(); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	logger.Debugw("read config", "path", originalPath, "point_cloud", cfg.Rig.PointCloud, "force_cloud", cfg.Rig.ForceCloud)
	return &cfg, nil
}

// decodeYAML decodes YAML through its JSON form so both formats share the json field names.
func decodeYAML(r io.Reader, cfg *Config) error {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return err
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, cfg)
}
