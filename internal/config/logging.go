package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the global logrus logger: JSON in production,
// coloured text otherwise.
func ConfigureLogging(app AppConfig) {
	if app.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(app.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("unknown LOG_LEVEL %q, using info", app.LogLevel)
		level = log.InfoLevel
	}
	if app.Debug && level < log.DebugLevel {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}
