package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type API struct {
	Listen           string
	TokenSecret      []byte
	ConcealForbidden bool
}

const (
	Cfg_api_listen           = "api.listen"
	Cfg_api_tokenSecret      = "api.tokenSecret"
	Cfg_api_concealForbidden = "api.concealForbidden"

	minTokenSecretLen = 32
)

var (
	apiDefaults = map[string]interface{}{
		Cfg_api_listen:           ":8080",
		Cfg_api_tokenSecret:      "",
		Cfg_api_concealForbidden: true,
	}
)

func init() {
	for k, v := range apiDefaults {
		viper.SetDefault(k, v)
	}
}

func buildAPIConfig() (*API, error) {
	c := &API{
		Listen:           viper.GetString(Cfg_api_listen),
		ConcealForbidden: viper.GetBool(Cfg_api_concealForbidden),
	}

	if s := viper.GetString(Cfg_api_tokenSecret); s != "" {
		if len(s) < minTokenSecretLen {
			return nil, errors.Errorf("%s must be at least %d bytes", Cfg_api_tokenSecret, minTokenSecretLen)
		}
		c.TokenSecret = []byte(s)
	}

	return c, nil
}
