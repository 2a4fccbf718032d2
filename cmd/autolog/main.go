// Command autolog inspects autolog configuration files and runs a logger
// that follows one while it changes.
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// loadEnvFiles loads .env from ~/.config/autolog and then the working
// directory. Variables already set in the environment win.
func loadEnvFiles() {
	if home, err := os.UserHomeDir(); err == nil {
		configEnv := filepath.Join(home, ".config", "autolog", ".env")
		if _, err := os.Stat(configEnv); err == nil {
			_ = godotenv.Load(configEnv)
		}
	}
	_ = godotenv.Load()
}

func main() {
	loadEnvFiles()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: os.Getenv("NO_COLOR") != ""})

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
