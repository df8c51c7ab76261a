package config

import (
	"github.com/spf13/viper"
)

type DID struct {
	Method string
}

const (
	Cfg_did_method = "did.method"
)

var (
	didDefaults = map[string]interface{}{
		Cfg_did_method: "example",
	}
)

func init() {
	for k, v := range didDefaults {
		viper.SetDefault(k, v)
	}
}

func buildDIDConfig() *DID {
	return &DID{
		Method: viper.GetString(Cfg_did_method),
	}
}
