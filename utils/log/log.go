package log

import (
	"os"
	"time"

	ddhook "github.com/bin3377/logrus-datadog-hook"
	"github.com/sirupsen/logrus"

	"github.com/Luismorlan/goodnewsbot/utils/dotenv"
)

const (
	datadogUSHost    = "http-intake.logs.datadoghq.com"
	syncFrequencySec = 30
	syncRetry        = 3

	serviceNameEnv = "GOODNEWSBOT_SERVICE"
	logLevelEnv    = "LOG_LEVEL"
	datadogKeyEnv  = "DATADOG_API_KEY"
	defaultService = "goodnewsbot"
	timestampStyle = "2006-01-02 15:04:05.000000-07:00"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

// InitLogger (re)builds the global logger from the environment. main calls it
// again after the .env files are loaded.
func InitLogger() {
	logger = logrus.New()

	// Every line carries a timestamp prefix, this is what operators tail.
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampStyle,
	})
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(os.Getenv(logLevelEnv))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if apiKey := os.Getenv(datadogKeyEnv); apiKey != "" && dotenv.IsProdEnv() {
		hook := ddhook.NewHook(
			datadogUSHost,
			apiKey,
			syncFrequencySec*time.Second,
			syncRetry,
			logrus.InfoLevel,
			&logrus.JSONFormatter{},
			ddhook.Options{},
		)
		logger.Hooks.Add(hook)
	}

	service := os.Getenv(serviceNameEnv)
	if service == "" {
		service = defaultService
	}

	Log = logger.WithFields(
		logrus.Fields{"service": service, "is_development": !dotenv.IsProdEnv()},
	)
}
