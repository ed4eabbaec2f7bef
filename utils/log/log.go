package log

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/stonksfeed/tickerscan/utils/dotenv"
	"github.com/stonksfeed/tickerscan/utils/flag"
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

func InitLogger() {
	logger = logrus.New()

	if os.Getenv("TICKERSCAN_ENV") == dotenv.ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Send log to stderr, keep stdout for the status report.
	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": os.Getenv("TICKERSCAN_ENV") != dotenv.ProdEnv},
	)
}
