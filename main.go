package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"finbase/txlink/cmd/amazon"
	"finbase/txlink/cmd/detect"
	"finbase/txlink/cmd/generic"
	"finbase/txlink/cmd/link"
	"finbase/txlink/cmd/root"
)

func init() {
	// Load environment variables silently first, then set the global log
	// level before any logger is created.
	loadEnvSilently()
	configureLogLevelDirectly()

	root.Init()

	root.Cmd.AddCommand(detect.Cmd)
	root.Cmd.AddCommand(generic.Cmd)
	root.Cmd.AddCommand(amazon.Cmd)
	root.Cmd.AddCommand(link.Cmd)
}

// loadEnvSilently loads environment variables without logging anything.
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// configureLogLevelDirectly sets the global log level for all logrus
// instances before any logging happens.
func configureLogLevelDirectly() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
