// Package version reports the termroom version and build metadata.
//
// Commit is set with -ldflags "-X github.com/bhandras/termroom/internal/version.Commit=...".
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Commit is the git commit of this build.
var Commit string

// semanticAlphabet holds the characters allowed in a pre-release tag.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	appMajor uint = 0
	appMinor uint = 3
	appPatch uint = 0

	appPreRelease = ""
)

// Version returns the semantic version.
func Version() string {
	return semver(appPreRelease)
}

// Rich returns the version plus the commit and Go toolchain, when known.
func Rich() string {
	parts := []string{Version()}
	if c := commit(); c != "" {
		parts = append(parts, "commit="+c)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.GoVersion != "" {
		parts = append(parts, "go="+info.GoVersion)
	}
	return strings.Join(parts, " ")
}

// commit prefers the linker-provided value and falls back to VCS stamping.
func commit() string {
	if c := strings.TrimSpace(Commit); c != "" {
		return c
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

func semver(pre string) string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if pre = filter(pre, semanticAlphabet); pre != "" {
		v += "-" + pre
	}
	return v
}

func filter(s, alphabet string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(alphabet, r) {
			return r
		}
		return -1
	}, s)
}
