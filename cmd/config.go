package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/hjson"
	"github.com/knadh/koanf/providers/cliflagv2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

const configFile = "bluestream.conf"

// Values describes the configuration values that a user can modify and
// supply to the application.
type Values struct {
	Adapter         string        `koanf:"adapter"`
	AnyController   bool          `koanf:"any-controller"`
	Player          string        `koanf:"player"`
	Converter       string        `koanf:"converter"`
	ResolveAttempts int           `koanf:"resolve-attempts"`
	ResolveInterval time.Duration `koanf:"resolve-interval"`
	SettleDelay     time.Duration `koanf:"settle-delay"`
	Debug           bool          `koanf:"debug"`
}

// Config describes the configuration for the app.
type Config struct {
	path string

	Values Values
}

// NewConfig returns a new configuration.
func NewConfig() *Config {
	return &Config{}
}

// Load loads the configuration from the configuration file and the
// command-line flags, flags taking precedence.
func (c *Config) Load(k *koanf.Koanf, cliCtx *cli.Context) error {
	if err := c.createConfigDir(); err != nil {
		return err
	}

	cfgfile, err := c.FilePath(configFile)
	if err != nil {
		return err
	}

	if err := k.Load(file.Provider(cfgfile), hjson.Parser()); err != nil {
		return err
	}

	if err := k.Load(cliflagv2.Provider(cliCtx, "."), nil); err != nil {
		return err
	}

	return k.UnmarshalWithConf("", &c.Values, koanf.UnmarshalConf{Tag: "koanf"})
}

// Controller returns the controller name that endpoint resolution is
// restricted to. The any-controller mode selects the empty name.
func (c *Config) Controller() string {
	if c.Values.AnyController {
		return ""
	}

	if c.Values.Adapter != "" {
		return c.Values.Adapter
	}

	return DefaultController
}

// createConfigDir checks for and/or creates a configuration directory.
func (c *Config) createConfigDir() error {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPaths := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		filepath.Join(homedir, ".config"),
	}

	for _, dir := range configPaths {
		if dir == "" {
			continue
		}

		if _, err := os.Stat(dir); err != nil {
			continue
		}

		fullpath := filepath.Join(dir, "bluestream")
		if _, err := os.Stat(fullpath); err == nil {
			c.path = fullpath
			return nil
		}

		if err := os.Mkdir(fullpath, os.ModePerm); err == nil {
			c.path = fullpath
			return nil
		}
	}

	return fmt.Errorf("the configuration directory could not be created")
}

// FilePath returns the absolute path for the given configuration file,
// creating it when absent.
func (c *Config) FilePath(name string) (string, error) {
	confPath := filepath.Join(c.path, name)

	if _, err := os.Stat(confPath); err != nil {
		fd, err := os.Create(confPath)
		if err != nil {
			return "", fmt.Errorf("cannot create %s file at %s", name, confPath)
		}
		fd.Close()
	}

	return confPath, nil
}
