package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the shared application logger. Every package logs through it so
// that fields and formatting stay consistent across layers.
var Log *logrus.Logger

func Init() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetLevel(logrus.InfoLevel)
}
