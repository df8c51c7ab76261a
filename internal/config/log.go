package config

import (
	"github.com/spf13/viper"
)

type Log struct {
	Level  string
	Format string
}

const (
	Cfg_log_level  = "log.level"
	Cfg_log_format = "log.format"
)

var (
	logDefaults = map[string]interface{}{
		Cfg_log_level:  "info",
		Cfg_log_format: "text",
	}
)

func init() {
	for k, v := range logDefaults {
		viper.SetDefault(k, v)
	}
}

func buildLogConfig() (*Log, error) {
	c := &Log{
		Level:  viper.GetString(Cfg_log_level),
		Format: viper.GetString(Cfg_log_format),
	}

	if viper.GetBool(Cfg_verbose) {
		c.Level = "debug"
	}

	return c, nil
}
