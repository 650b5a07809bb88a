// Package config resolves runtime settings from flags, the environment and
// an optional dotenv file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Defaults used when neither a flag nor the environment sets a value.
const (
	DefaultDBPath  = "servis.sqlite3"
	DefaultAddr    = ":8080"
	DefaultEnvFile = ".env"
)

// Environment variables consulted for unset flags.
const (
	EnvDBPath  = "SERVIS_DB"
	EnvAddr    = "SERVIS_ADDR"
	EnvLogPath = "SERVIS_LOG"
)

// Config holds the resolved settings of the server.
type Config struct {
	DBPath  string
	Addr    string
	LogPath string
}

const usage = `Usage: servis [flags]

Flags:
  -d, -db <path>          SQLite database path (env SERVIS_DB, default: servis.sqlite3)
  -a, -addr <host:port>   listen address (env SERVIS_ADDR, default: :8080)
  -l, -log <path>         log file path (env SERVIS_LOG, default: stdout/stderr only)
  -env <path>             dotenv file to load (default: .env, missing file is ignored)
  -h, -help               show this help and exit
`

// Load parses args (without the program name). The dotenv file is loaded
// before the environment is consulted; variables already set in the process
// environment win over the file, and explicit flags win over both.
// flag.ErrHelp is returned when help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	fset := flag.NewFlagSet("servis", flag.ContinueOnError)
	fset.SetOutput(out)
	fset.Usage = func() { fmt.Fprint(out, usage) }

	var cfg Config
	fset.StringVar(&cfg.DBPath, "db", "", "")
	fset.StringVar(&cfg.DBPath, "d", "", "")
	fset.StringVar(&cfg.Addr, "addr", "", "")
	fset.StringVar(&cfg.Addr, "a", "", "")
	fset.StringVar(&cfg.LogPath, "log", "", "")
	fset.StringVar(&cfg.LogPath, "l", "", "")
	envFile := fset.String("env", DefaultEnvFile, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", *envFile, err)
	}

	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["db"] && !set["d"] {
		cfg.DBPath = envOr(EnvDBPath, DefaultDBPath)
	}
	if !set["addr"] && !set["a"] {
		cfg.Addr = envOr(EnvAddr, DefaultAddr)
	}
	if !set["log"] && !set["l"] {
		cfg.LogPath = envOr(EnvLogPath, "")
	}

	if cfg.DBPath == "" {
		return nil, errors.New("database path must not be empty")
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
