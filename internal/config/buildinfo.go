package config

import (
	"fmt"
	"time"
)

// Fill with -ldflags on build.
var (
	AppName   = "crypto-dashboard"
	Version   = "dev"
	Commit    = "none"
	BuildTime = "" // ISO8601
)

var processStart = time.Now()

type BuildInfo struct {
	AppName   string
	Version   string
	Commit    string
	BuildTime string
	StartedAt time.Time
}

func Info() BuildInfo {
	return BuildInfo{
		AppName:   AppName,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		StartedAt: processStart,
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (%s)", b.AppName, b.Version, b.Commit)
}
