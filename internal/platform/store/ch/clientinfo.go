package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo returns a ClientInfo describing this process and role.
// role examples: "pipeline", "api"
func BuildClientInfo(name, role string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	sha := vcsShortSHA()
	gover := runtime.Version()

	type kv = struct{ Name, Version string }

	if name == "" {
		name = "pkgpulse"
	}

	products := []kv{
		{Name: name, Version: safe(sha)},
		{Name: "role", Version: safe(role)},
		{Name: "go", Version: safe(gover)},
		{Name: "host", Version: safe(host)},
	}

	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

func safe(s string) string {
	return strings.TrimSpace(s)
}
