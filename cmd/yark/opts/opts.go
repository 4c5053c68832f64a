package opts

import (
	"context"
	"os"

	"github.com/gotofritz/yark/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool
}

// LoadConfig reads the config file if one exists. A missing file is fine;
// command flags can supply everything a run needs.
func (o *RootOpts) LoadConfig(ctx context.Context) (*config.Config, error) {
	if _, err := os.Stat(o.ConfigFile); os.IsNotExist(err) {
		cfg := &config.Config{}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Errorf("validating default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(ctx, o.ConfigFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
