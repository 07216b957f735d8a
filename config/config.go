// Package config reads the configuration of a simulated camera rig from disk.
package config

import (
	"github.com/pkg/errors"

	"go.viam.com/depthsim/components/camera/realsense"
)

// Config is the top level configuration file.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Debug turns on debug logging.
	Debug bool `json:"debug,omitempty"`

	Rig *realsense.Config `json:"rig,omitempty"`
}

// Ensure fills defaults and validates the config, in that order.
func (c *Config) Ensure() error {
	if c.Rig == nil {
		c.Rig = &realsense.Config{}
	}
	c.Rig.FillDefaults()
	if _, err := c.Rig.Validate("rig"); err != nil {
		return errors.Wrap(err, "error validating rig")
	}
	return nil
}
