package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

type App struct {
	Port        string
	AdminAPIKey string
	DBDSN       string
	CMCAPIKey   string
	StableQuote string

	WorkerSecret           string
	DisableLocalComparison bool

	RefreshInterval time.Duration
	RetryDelay      time.Duration
	CycleTimeout    time.Duration
	JournalSize     int

	Blacklist listings.SymbolSet

	// worker process
	DashboardURL   string
	WorkerInterval time.Duration
	WorkerOnce     bool
}

// Load reads the environment. Only a broken BLACKLIST_FILE is an error;
// malformed scalars fall back to defaults like the rest of getenv.
func Load() (App, error) {
	a := App{
		Port:        getenv("PORT", "5000"),
		AdminAPIKey: strings.TrimSpace(os.Getenv("ADMIN_API_KEY")),
		DBDSN:       strings.TrimSpace(os.Getenv("DB_DSN")),
		CMCAPIKey:   strings.TrimSpace(os.Getenv("CMC_API_KEY")),
		StableQuote: strings.ToUpper(strings.TrimSpace(getenv("STABLE_QUOTE", "USDT"))),

		WorkerSecret: strings.TrimSpace(os.Getenv("WORKER_SECRET")),
		DisableLocalComparison: getbool("DISABLE_LOCAL_COMPARISON") ||
			getbool("DISABLE_LOCAL_BINANCE"),

		RefreshInterval: getdur("REFRESH_INTERVAL", time.Hour),
		RetryDelay:      getdur("RETRY_DELAY", 5*time.Minute),
		CycleTimeout:    getdur("CYCLE_TIMEOUT", 10*time.Minute),
		JournalSize:     getint("JOURNAL_SIZE", 200),

		DashboardURL:   strings.TrimRight(getenv("DASHBOARD_URL", "http://127.0.0.1:5000"), "/"),
		WorkerInterval: getdur("WORKER_INTERVAL", time.Hour),
		WorkerOnce:     getbool("WORKER_ONCE"),
	}

	a.Blacklist = toSetCSV(os.Getenv("BLACKLIST"))
	if path := strings.TrimSpace(os.Getenv("BLACKLIST_FILE")); path != "" {
		extra, err := LoadBlacklistFile(path)
		if err != nil {
			return a, err
		}
		for s := range extra {
			a.Blacklist[s] = struct{}{}
		}
	}
	return a, nil
}

type blacklistFile struct {
	Blacklist []string `yaml:"blacklist"`
}

// LoadBlacklistFile reads a YAML document of the form
//
//	blacklist: [LUNA, USTC]
func LoadBlacklistFile(path string) (listings.SymbolSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blacklist file: %w", err)
	}
	var f blacklistFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("blacklist file %s: %w", path, err)
	}
	return listings.NewSymbolSet(f.Blacklist...), nil
}

func toSetCSV(csv string) listings.SymbolSet {
	res := make(listings.SymbolSet, 8)
	for _, p := range strings.Split(csv, ",") {
		res.Add(p)
	}
	return res
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getint(k string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil && v > 0 {
		return v
	}
	return def
}

// getdur accepts Go durations ("90m") and bare seconds ("3600").
func getdur(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := ParseInterval(v); err == nil {
		return d
	}
	return def
}

func ParseInterval(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("interval must be positive: %q", v)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive: %q", v)
	}
	return d, nil
}
