package main

import (
	"github.com/spf13/pflag"

	"github.com/ironsheep/image-craft/internal/config"
)

// configFlags are accepted by every command that reads the configuration.
type configFlags struct {
	path    string
	envFile string
}

func (f *configFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.path, "config", "c", "", "configuration file (.yaml, .yml, .json or .jsonc)")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
}

func (a *app) loadConfig(f configFlags) (*config.Config, error) {
	if f.envFile != "" {
		config.LoadDotEnv(f.envFile)
	}
	return config.Load(f.path, a.logger)
}
