package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/tcfw/didkms/internal/utils/logging"
)

const (
	Cfg_verbose = "verbose"
)

var (
	defaults = map[string]interface{}{
		Cfg_verbose: false,
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("didkms")
	viper.AddConfigPath("/etc/didkms/")
	viper.AddConfigPath("$HOME/.didkms")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("DIDKMS")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logging.Entry().Warnf("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	return build()
}

func build() (*Config, error) {
	var err error
	c := &Config{}

	c.log, err = buildLogConfig()
	if err != nil {
		return nil, errors.Wrap(err, "log config")
	}

	c.did = buildDIDConfig()

	c.api, err = buildAPIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "api config")
	}

	c.storage, err = buildStorageConfig()
	if err != nil {
		return nil, errors.Wrap(err, "storage config")
	}

	c.client, err = buildClientConfig()
	if err != nil {
		return nil, errors.Wrap(err, "client config")
	}

	if err := logging.Configure(c.log.Level, c.log.Format); err != nil {
		return nil, err
	}

	return c, nil
}

type Config struct {
	log     *Log
	did     *DID
	api     *API
	storage *Storage
	client  *Client
}

func (c *Config) Log() *Log {
	return c.log
}

func (c *Config) DID() *DID {
	return c.did
}

func (c *Config) API() *API {
	return c.api
}

func (c *Config) Storage() *Storage {
	return c.storage
}

func (c *Config) Client() *Client {
	return c.client
}
