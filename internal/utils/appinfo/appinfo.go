// Package appinfo reports build metadata for logs and health checks.
package appinfo

import (
	"os"
	"runtime/debug"
)

// GetVersion resolves the running version from APP_VERSION, then the
// module or VCS build info, then "0.0.0-unknown".
func GetVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "0.0.0-unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return setting.Value
		}
	}
	return "0.0.0-unknown"
}
