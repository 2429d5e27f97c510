package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// StoreConfig selects and locates the storage backend.
type StoreConfig struct {
	Backend       string `json:"backend"`
	Path          string `json:"path,omitempty"`
	MongoURI      string `json:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty"`
}

// QuickAddConfig tunes the quick-add buffer. Amounts map to keys 1..n.
type QuickAddConfig struct {
	TimeoutMS int       `json:"timeout_ms"`
	Amounts   []float64 `json:"amounts"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `json:"addr"`
	JWTSecret      string   `json:"jwt_secret,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// Config is the global configuration stored in ~/.regnemetoden/config.json.
type Config struct {
	UserID   string         `json:"user_id"`
	Store    StoreConfig    `json:"store"`
	QuickAdd QuickAddConfig `json:"quick_add"`
	Server   ServerConfig   `json:"server"`
}

// Dir returns the global regnemetoden directory.
func Dir(homeDir string) string {
	return filepath.Join(homeDir, ".regnemetoden")
}

// Path returns the path to config.json.
func Path(homeDir string) string {
	return filepath.Join(Dir(homeDir), "config.json")
}

// Default returns the configuration used when no file exists. The user id
// is left empty; Load assigns one.
func Default(homeDir string) Config {
	return Config{
		Store: StoreConfig{
			Backend:       BackendFile,
			Path:          filepath.Join(Dir(homeDir), "data"),
			MongoDatabase: "regnemetoden",
		},
		QuickAdd: QuickAddConfig{
			TimeoutMS: 2000,
			Amounts:   []float64{1, 5, 10, 50},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Read reads config.json. Missing files and missing fields fall back to the
// defaults.
func Read(homeDir string) (*Config, error) {
	cfg := Default(homeDir)
	data, err := os.ReadFile(Path(homeDir))
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	fillDefaults(&cfg, Default(homeDir))
	return &cfg, nil
}

func fillDefaults(cfg *Config, def Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.Path == "" && cfg.Store.Backend != BackendMongo {
		cfg.Store.Path = def.Store.Path
	}
	if cfg.Store.MongoDatabase == "" {
		cfg.Store.MongoDatabase = def.Store.MongoDatabase
	}
	if cfg.QuickAdd.TimeoutMS <= 0 {
		cfg.QuickAdd.TimeoutMS = def.QuickAdd.TimeoutMS
	}
	if len(cfg.QuickAdd.Amounts) == 0 {
		cfg.QuickAdd.Amounts = def.QuickAdd.Amounts
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
}

// Write writes config.json, creating the directory if needed. The file may
// hold a JWT secret, so it is only readable by the owner.
func Write(homeDir string, cfg *Config) error {
	if err := os.MkdirAll(Dir(homeDir), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(homeDir), data, 0600)
}

// Load is Read plus first-run initialisation and environment overrides. A
// .env file in the working directory is loaded first if present. The user id
// is generated and written back on first use; overrides are never written.
func Load(homeDir string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg, err := Read(homeDir)
	if err != nil {
		return nil, err
	}
	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
		if err := Write(homeDir, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given env files, skipping those that do not exist.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// QuickAddTimeout returns the idle window of the quick-add buffer.
func (c *Config) QuickAddTimeout() time.Duration {
	return time.Duration(c.QuickAdd.TimeoutMS) * time.Millisecond
}
