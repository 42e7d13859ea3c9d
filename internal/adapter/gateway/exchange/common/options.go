package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	Timeout         time.Duration // per-request
	BreakerFailures uint32        // consecutive failures that open the breaker
	BreakerCooldown time.Duration // how long the breaker stays open
	UserAgent       string
}

func DefaultOptionsFromEnv() Options {
	parseDur := func(k string, d time.Duration) time.Duration {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if x, err := time.ParseDuration(v); err == nil {
				return x
			}
		}
		return d
	}
	parseUint := func(k string, d uint32) uint32 {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if x, err := strconv.ParseUint(v, 10, 32); err == nil {
				return uint32(x)
			}
		}
		return d
	}
	ua := os.Getenv("HTTP_USER_AGENT")
	if ua == "" {
		ua = "crypto-dashboard (+https://github.com/ugurumutorak-max/crypto-dashboard)"
	}
	return Options{
		Timeout:         parseDur("HTTP_TIMEOUT", 15*time.Second),
		BreakerFailures: parseUint("HTTP_BREAKER_FAILURES", 3),
		BreakerCooldown: parseDur("HTTP_BREAKER_COOLDOWN", 60*time.Second),
		UserAgent:       ua,
	}
}
