package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Storage struct {
	Driver   string
	Path     string
	CacheTTL time.Duration
}

const (
	Cfg_storage_driver = "storage.driver"
	Cfg_storage_path   = "storage.path"
	Cfg_cache_ttl      = "cache.ttl"
)

var (
	storageDefaults = map[string]interface{}{
		Cfg_storage_driver: "pebble",
		Cfg_storage_path:   "$HOME/.didkms/data",
		Cfg_cache_ttl:      5 * time.Minute,
	}
)

func init() {
	for k, v := range storageDefaults {
		viper.SetDefault(k, v)
	}
}

func buildStorageConfig() (*Storage, error) {
	c := &Storage{
		Driver:   viper.GetString(Cfg_storage_driver),
		Path:     os.ExpandEnv(viper.GetString(Cfg_storage_path)),
		CacheTTL: viper.GetDuration(Cfg_cache_ttl),
	}

	switch c.Driver {
	case "memory", "file", "pebble":
	default:
		return nil, errors.Errorf("unknown storage driver %q", c.Driver)
	}

	if c.CacheTTL < 0 {
		return nil, errors.Errorf("%s cannot be negative", Cfg_cache_ttl)
	}

	return c, nil
}
