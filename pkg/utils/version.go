// Package utils holds small helpers shared across the playback commands.
package utils

import "runtime/debug"

// Set at link time, e.g.
// -ldflags "-X github.com/papercomputeco/playback/pkg/utils.Version=v0.3.0".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// BuildInfo describes the running playback binary.
type BuildInfo struct {
	Version string
	Sha     string
	Built   string
}

// CurrentBuild returns the link-time values. Fields left unset fall back to
// what the Go toolchain stamped into the binary, which covers go install.
func CurrentBuild() BuildInfo {
	info, _ := debug.ReadBuildInfo()
	return BuildInfo{Version: Version, Sha: Sha, Built: Buildtime}.Fill(info)
}

// Fill replaces unset fields of b with the module version and VCS settings
// from info. A nil info leaves b unchanged.
func (b BuildInfo) Fill(info *debug.BuildInfo) BuildInfo {
	if info == nil {
		return b
	}

	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}

	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Sha == "HEAD" {
				b.Sha = s.Value
			}
		case "vcs.time":
			if b.Built == "dev" {
				b.Built = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && b.Sha != "HEAD" {
		b.Sha += "-dirty"
	}
	return b
}
