package cli

import (
	"runtime/debug"
	"strings"
)

const (
	devVersion         = "dev"
	goDevelMainVersion = "(devel)"
	vcsRevisionKey     = "vcs.revision"
	vcsModifiedKey     = "vcs.modified"
	shortRevisionLen   = 12
	dirtySuffix        = "-dirty"
)

var readBuildInfo = debug.ReadBuildInfo

// resolvedVersion picks the --version output: an injected release version,
// then the module version, then the vcs revision of the build.
func resolvedVersion(injected string) string {
	injected = strings.TrimSpace(injected)
	if injected != "" && injected != devVersion {
		return injected
	}

	if info, ok := readBuildInfo(); ok && info != nil {
		if module := strings.TrimSpace(info.Main.Version); module != "" && module != goDevelMainVersion {
			return module
		}
		if revision, dirty := buildRevision(info.Settings); revision != "" {
			if dirty {
				return revision + dirtySuffix
			}
			return revision
		}
	}

	if injected != "" {
		return injected
	}
	return devVersion
}

func buildRevision(settings []debug.BuildSetting) (revision string, dirty bool) {
	for _, setting := range settings {
		switch setting.Key {
		case vcsRevisionKey:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedKey:
			dirty = strings.EqualFold(strings.TrimSpace(setting.Value), "true")
		}
	}
	if len(revision) > shortRevisionLen {
		revision = revision[:shortRevisionLen]
	}
	return revision, dirty
}
