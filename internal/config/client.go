package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Client struct {
	Addr        string
	Token       string
	MaxAttempts int
}

const (
	Cfg_client_addr        = "client.addr"
	Cfg_client_token       = "client.token"
	Cfg_client_maxAttempts = "client.maxAttempts"
)

var (
	clientDefaults = map[string]interface{}{
		Cfg_client_addr:        "http://localhost:8080",
		Cfg_client_token:       "",
		Cfg_client_maxAttempts: 5,
	}
)

func init() {
	for k, v := range clientDefaults {
		viper.SetDefault(k, v)
	}
}

func buildClientConfig() (*Client, error) {
	c := &Client{
		Addr:        viper.GetString(Cfg_client_addr),
		Token:       viper.GetString(Cfg_client_token),
		MaxAttempts: viper.GetInt(Cfg_client_maxAttempts),
	}

	if c.MaxAttempts < 1 {
		return nil, errors.Errorf("%s must be at least 1", Cfg_client_maxAttempts)
	}

	return c, nil
}
