package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "https://api.app.reclaim.ai"
	DefaultConfigFile = "~/.reclaim.toml"
	TokenEnv          = "RECLAIM_TOKEN"
)

// ErrNoToken bedeutet: weder Argument, Umgebung noch Config-Datei liefern einen Token.
var ErrNoToken = errors.New("no reclaim token provided (argument, " + TokenEnv + " or " + DefaultConfigFile + ")")

type Config struct {
	Token      string
	APIURL     string
	ConfigFile string
	Timeout    time.Duration
	LogLevel   string
	Format     string
	Verbose    bool
}

// fileConfig bildet ~/.reclaim.toml ab:
//
//	[reclaim_ai]
//	token = "..."
type fileConfig struct {
	ReclaimAI struct {
		Token string `toml:"token" yaml:"token"`
	} `toml:"reclaim_ai" yaml:"reclaim_ai"`
}

func NewConfig() (*Config, error) {
	// .env laden (ignoriere Fehler wenn Datei nicht existiert)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "⚠️  Warnung beim Laden der .env: %v\n", err)
	}

	cfg := &Config{
		Token:      getEnv(TokenEnv, ""),
		APIURL:     getEnv("RECLAIM_API_URL", DefaultAPIURL),
		ConfigFile: getEnv("RECLAIM_CONFIG", DefaultConfigFile),
		Timeout:    getDurationEnv("RECLAIM_TIMEOUT", 30*time.Second),
		LogLevel:   getEnv("LOG_LEVEL", "INFO"),
		Format:     getEnv("RECLAIM_FORMAT", "yaml"),
		Verbose:    getBoolEnv("VERBOSE", false),
	}

	if cfg.Verbose {
		cfg.printDebugInfo()
	}

	return cfg, nil
}

// printDebugInfo schreibt auf stderr, damit YAML auf stdout sauber bleibt.
func (c *Config) printDebugInfo() {
	fmt.Fprintf(os.Stderr, "🔧 Configuration loaded:\n")
	fmt.Fprintf(os.Stderr, "   API URL: %s\n", c.APIURL)
	fmt.Fprintf(os.Stderr, "   Config File: %s\n", c.ConfigFile)
	fmt.Fprintf(os.Stderr, "   Timeout: %s\n", c.Timeout)
	fmt.Fprintf(os.Stderr, "   Has Token: %t (length: %d)\n", c.Token != "", len(c.Token))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate prüft die Werte, die ohne Netzwerk geprüft werden können.
// Der Token wird erst beim Erstellen des Clients aufgelöst.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.APIURL); err != nil {
		return fmt.Errorf("ungültige API URL (RECLAIM_API_URL): %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout muss positiv sein (RECLAIM_TIMEOUT)")
	}
	switch c.Format {
	case "yaml", "markdown":
	default:
		return fmt.Errorf("unbekanntes Ausgabeformat %q (yaml, markdown)", c.Format)
	}
	return nil
}

func (c *Config) GetAPIBaseURL() string {
	return strings.TrimSuffix(c.APIURL, "/")
}

// ResolveToken liefert den Token in der Reihenfolge:
// explizit > RECLAIM_TOKEN > Config-Datei (Standard ~/.reclaim.toml).
func ResolveToken(explicit, path string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if token := os.Getenv(TokenEnv); token != "" {
		return token, nil
	}

	if path == "" {
		path = DefaultConfigFile
	}
	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := cleanenv.ReadConfig(path, &fc); err != nil {
		return "", fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if fc.ReclaimAI.Token == "" {
		return "", fmt.Errorf("token not found in %s ([reclaim_ai] token)", path)
	}
	return fc.ReclaimAI.Token, nil
}

// ExpandHome ersetzt ein führendes "~" durch das Home-Verzeichnis.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// NewLogger baut einen slog Logger auf stderr für DEBUG, INFO, WARN oder ERROR.
func NewLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
