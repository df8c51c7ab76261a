package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	defer func() {
		logger.Logger.SetLevel(logrus.InfoLevel)
		logger.Logger.SetFormatter(&logrus.TextFormatter{})
	}()

	if assert.NoError(t, Configure("debug", "json")) {
		assert.Equal(t, logrus.DebugLevel, Entry().Logger.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, Entry().Logger.Formatter)
	}

	if assert.NoError(t, Configure("warn", "")) {
		assert.Equal(t, logrus.WarnLevel, Entry().Logger.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, Entry().Logger.Formatter)
	}

	assert.Error(t, Configure("loud", "text"))
	assert.Error(t, Configure("info", "xml"))
}
