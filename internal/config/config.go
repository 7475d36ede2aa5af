package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SiteConfig is one upstream storefront: its base URL plus the REST API
// key/secret pair used for basic auth.
type SiteConfig struct {
	Code   string
	URL    string
	Key    string
	Secret string
}

type Config struct {
	Env string `env:"ENV" default:"dev"`

	Port string `env:"PORT" default:"8080"`

	StateBackend  string `env:"STATE_BACKEND" default:"memory"` // memory | mysql
	MySQLDSN      string `env:"DB_DSN" default:""`              // required when STATE_BACKEND=mysql
	RunMigrations bool   `env:"RUN_MIGRATIONS" default:"false"`

	// Site registry. SITES lists the codes; each code reads its own
	// WOO_<CODE>_URL / _KEY / _SECRET triple. PrimarySite owns the
	// canonical product fields.
	Sites       []SiteConfig
	PrimarySite string `env:"PRIMARY_SITE" default:"com"`

	// Engine tuning.
	Workers       int `env:"SYNC_WORKERS" default:"10"`
	BatchSize     int `env:"SYNC_BATCH_SIZE" default:"300"`
	PageSize      int `env:"SYNC_PAGE_SIZE" default:"100"`
	ProgressEvery int `env:"SYNC_PROGRESS_EVERY" default:"50"`
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:           getenv("ENV", "dev"),
		Port:          getenv("PORT", "8080"),
		StateBackend:  getenv("STATE_BACKEND", "memory"),
		MySQLDSN:      getenv("DB_DSN", ""),
		RunMigrations: getenv("RUN_MIGRATIONS", "false") == "true",
		PrimarySite:   getenv("PRIMARY_SITE", "com"),
		Workers:       getint("SYNC_WORKERS", 10),
		BatchSize:     getint("SYNC_BATCH_SIZE", 300),
		PageSize:      getint("SYNC_PAGE_SIZE", 100),
		ProgressEvery: getint("SYNC_PROGRESS_EVERY", 50),
	}

	for _, code := range splitCodes(getenv("SITES", "com,uk,de,fr")) {
		upper := strings.ToUpper(code)
		cfg.Sites = append(cfg.Sites, SiteConfig{
			Code:   code,
			URL:    getenv("WOO_"+upper+"_URL", ""),
			Key:    getenv("WOO_"+upper+"_KEY", ""),
			Secret: getenv("WOO_"+upper+"_SECRET", ""),
		})
	}

	return cfg
}

// Site looks a storefront up by code.
func (c Config) Site(code string) (SiteConfig, bool) {
	for _, s := range c.Sites {
		if s.Code == code {
			return s, true
		}
	}
	return SiteConfig{}, false
}

// SiteCodes returns the configured codes in registry order.
func (c Config) SiteCodes() []string {
	out := make([]string, 0, len(c.Sites))
	for _, s := range c.Sites {
		out = append(out, s.Code)
	}
	return out
}

func getenv(key string, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
