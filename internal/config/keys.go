package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override, e.g. REGNEMETODEN_STORE_BACKEND.
const EnvPrefix = "REGNEMETODEN_"

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"user_id": {
		get: func(c *Config) string { return c.UserID },
		set: func(c *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("user_id must not be empty")
			}
			c.UserID = strings.TrimSpace(v)
			return nil
		},
	},
	"store.backend": {
		get: func(c *Config) string { return c.Store.Backend },
		set: func(c *Config, v string) error {
			switch v {
			case BackendFile, BackendSQLite, BackendMongo, BackendMemory:
				c.Store.Backend = v
				return nil
			}
			return fmt.Errorf("unknown backend '%s' (use file, sqlite, mongo or memory)", v)
		},
	},
	"store.path": {
		get: func(c *Config) string { return c.Store.Path },
		set: func(c *Config, v string) error { c.Store.Path = v; return nil },
	},
	"store.mongo_uri": {
		get: func(c *Config) string { return c.Store.MongoURI },
		set: func(c *Config, v string) error { c.Store.MongoURI = v; return nil },
	},
	"store.mongo_database": {
		get: func(c *Config) string { return c.Store.MongoDatabase },
		set: func(c *Config, v string) error { c.Store.MongoDatabase = v; return nil },
	},
	"quick_add.timeout_ms": {
		get: func(c *Config) string { return strconv.Itoa(c.QuickAdd.TimeoutMS) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 100 {
				return fmt.Errorf("quick_add.timeout_ms must be a number of at least 100")
			}
			c.QuickAdd.TimeoutMS = n
			return nil
		},
	},
	"quick_add.amounts": {
		get: func(c *Config) string { return joinAmounts(c.QuickAdd.Amounts) },
		set: func(c *Config, v string) error {
			amounts, err := parseAmounts(v)
			if err != nil {
				return err
			}
			c.QuickAdd.Amounts = amounts
			return nil
		},
	},
	"server.addr": {
		get: func(c *Config) string { return c.Server.Addr },
		set: func(c *Config, v string) error { c.Server.Addr = v; return nil },
	},
	"server.jwt_secret": {
		get: func(c *Config) string { return c.Server.JWTSecret },
		set: func(c *Config, v string) error { c.Server.JWTSecret = v; return nil },
	},
	"server.allowed_origins": {
		get: func(c *Config) string { return strings.Join(c.Server.AllowedOrigins, ",") },
		set: func(c *Config, v string) error {
			c.Server.AllowedOrigins = splitList(v)
			return nil
		},
	},
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key as text.
func Get(c *Config, key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key '%s'", key)
	}
	return f.get(c), nil
}

// Set parses value and stores it under key.
func Set(c *Config, key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key '%s'", key)
	}
	return f.set(c, value)
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ApplyEnv overrides keys from the environment.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, key := range Keys() {
		v, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		if err := Set(c, key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

func joinAmounts(amounts []float64) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseAmounts(v string) ([]float64, error) {
	parts := splitList(v)
	if len(parts) == 0 || len(parts) > 9 {
		return nil, fmt.Errorf("quick_add.amounts needs between 1 and 9 comma-separated amounts")
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		a, err := strconv.ParseFloat(p, 64)
		if err != nil || a <= 0 {
			return nil, fmt.Errorf("invalid quick-add amount '%s'", p)
		}
		out = append(out, a)
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
