package display

import (
	"fmt"
	"runtime/debug"
)

// Version formats the program's version banner, e.g. "mytool v1.2.3". When no
// explicit version was declared the module's build metadata is consulted;
// with no usable metadata either, a placeholder is reported.
func Version(prog, version string) string {
	if version == "" {
		version = inferVersion()
	}
	if version == "" {
		if prog == "" {
			return "no version specified"
		}
		return fmt.Sprintf("%s: no version specified", prog)
	}
	if prog == "" {
		return "v" + version
	}
	return fmt.Sprintf("%s v%s", prog, version)
}

// inferVersion attempts to infer the main module version from build info.
func inferVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return ""
}
