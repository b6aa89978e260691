package domain

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// localtimePath is where most Unix systems link the active zoneinfo file.
var localtimePath = "/etc/localtime"

// LocalTimezone resolves the device's IANA timezone name and location.
// Resolution order: the TZ environment variable, the /etc/localtime symlink
// target, then UTC. It never fails.
func LocalTimezone() (string, *time.Location) {
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return tz, loc
		}
	}

	if target, err := filepath.EvalSymlinks(localtimePath); err == nil {
		if name, ok := zoneFromPath(target); ok {
			if loc, err := time.LoadLocation(name); err == nil {
				return name, loc
			}
		}
	}

	return "UTC", time.UTC
}

// zoneFromPath extracts "Area/City" from a path like
// /usr/share/zoneinfo/Area/City.
func zoneFromPath(p string) (string, bool) {
	const marker = "zoneinfo/"
	i := strings.LastIndex(p, marker)
	if i < 0 {
		return "", false
	}
	name := p[i+len(marker):]
	return name, name != ""
}

// LoadTimezone loads an IANA location, mapping failures to ErrInvalidInput.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, ErrInvalidInput
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidInput
	}
	return loc, nil
}
