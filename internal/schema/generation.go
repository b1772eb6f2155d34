package schema

import (
	"strconv"
	"strings"
)

// Feature is a capability bit present in some producer generations.
type Feature uint16

// Feature flags, in the order they appeared.
const (
	FeatureSandbox Feature = 1 << iota
	FeatureSlug
	FeatureHooks
	FeatureCompactMetadata
	FeatureBackgroundAgents
	FeatureTaskOutput
	FeatureThinkingMetadata
	FeatureChromeMCP
	FeatureLSP

	featureAll Feature = 1<<iota - 1
)

// Generation identifies a discrete producer schema generation with its
// feature set. Unknown version tags map to a permissive generation that
// enables every feature so decoding never fails on future logs.
type Generation struct {
	Name     string
	Raw      string
	features Feature
}

// Supports reports whether the generation carries the given feature.
func (g Generation) Supports(f Feature) bool {
	return g.features&f != 0
}

// Known reports whether the version tag mapped to a recognized generation.
func (g Generation) Known() bool {
	return g.Name != "unknown"
}

func (g Generation) String() string {
	if !g.Known() && g.Raw != "" {
		return "unknown(" + g.Raw + ")"
	}
	return g.Name
}

// generationTable lists generations newest-first; detection picks the first
// whose minimum version the tag satisfies. Feature sets are cumulative.
var generationTable = []struct {
	name     string
	min      [3]int
	features Feature
}{
	{"v2.2", [3]int{2, 2, 0}, FeatureSandbox | FeatureSlug | FeatureHooks |
		FeatureCompactMetadata | FeatureBackgroundAgents | FeatureTaskOutput |
		FeatureThinkingMetadata | FeatureChromeMCP | FeatureLSP},
	{"v2.1", [3]int{2, 1, 0}, FeatureSandbox | FeatureSlug | FeatureHooks |
		FeatureCompactMetadata | FeatureBackgroundAgents | FeatureTaskOutput |
		FeatureThinkingMetadata},
	{"v2", [3]int{2, 0, 0}, FeatureSandbox | FeatureSlug | FeatureHooks |
		FeatureCompactMetadata | FeatureBackgroundAgents},
	{"v1.0.40", [3]int{1, 0, 40}, FeatureSandbox | FeatureSlug | FeatureHooks},
	{"v1", [3]int{1, 0, 0}, FeatureSandbox},
	{"legacy", [3]int{0, 0, 0}, 0},
}

// DetectGeneration maps a producer version tag to its schema generation.
// Pure function; ties resolve by range matching over (major, minor, patch).
func DetectGeneration(version string) Generation {
	major, minor, patch, ok := parseVersion(version)
	if !ok {
		return Generation{Name: "unknown", Raw: version, features: featureAll}
	}
	for _, g := range generationTable {
		if versionAtLeast(major, minor, patch, g.min) {
			return Generation{Name: g.name, Raw: version, features: g.features}
		}
	}
	return Generation{Name: "legacy", Raw: version}
}

func versionAtLeast(major, minor, patch int, min [3]int) bool {
	if major != min[0] {
		return major > min[0]
	}
	if minor != min[1] {
		return minor > min[1]
	}
	return patch >= min[2]
}

// parseVersion splits a MAJOR.MINOR.PATCH tag. Missing minor/patch default
// to zero; any pre-release or build suffix on the patch is ignored.
func parseVersion(s string) (major, minor, patch int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, 0, false
	}
	parts := strings.SplitN(s, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return 0, 0, 0, false
	}
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil || minor < 0 {
			return 0, 0, 0, false
		}
	}
	if len(parts) > 2 {
		p := parts[2]
		if i := strings.IndexAny(p, "-+"); i >= 0 {
			p = p[:i]
		}
		patch, err = strconv.Atoi(p)
		if err != nil || patch < 0 {
			return 0, 0, 0, false
		}
	}
	return major, minor, patch, true
}
