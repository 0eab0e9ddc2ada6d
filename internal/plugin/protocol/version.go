package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// The wire format carries no version. Plugins instead declare which
// revision of the command vocabulary they were written against in their
// manifest, and the library refuses manifests it cannot serve.
const (
	// ProtocolVersion is the revision of the command vocabulary implemented here.
	// 1.0.0 is the original document/text set; 1.1.0 added selections,
	// toggles and the query-mode register command.
	ProtocolVersion = "1.1.0"

	// MinCompatibleVersion is the oldest manifest revision still accepted.
	MinCompatibleVersion = "1.0.0"
)

// Version is a parsed MAJOR.MINOR.PATCH revision.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a version string in "MAJOR.MINOR.PATCH" format.
func ParseVersion(version string) (Version, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: %s (expected MAJOR.MINOR.PATCH)", version)
	}

	var nums [3]int
	for i, name := range []string{"major", "minor", "patch"} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid %s version: %s", name, parts[i])
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// IsCompatible checks a manifest's declared protocol revision.
// Rules:
// - Major version must match exactly.
// - The revision may not be older than MinCompatibleVersion.
// - It may not be newer than ProtocolVersion: a plugin expecting commands
//   this library does not know cannot be served.
func IsCompatible(manifestVersion string) (bool, error) {
	declared, err := ParseVersion(manifestVersion)
	if err != nil {
		return false, fmt.Errorf("failed to parse manifest protocol version: %w", err)
	}

	current := CurrentVersion()
	minimum, err := ParseVersion(MinCompatibleVersion)
	if err != nil {
		return false, fmt.Errorf("failed to parse minimum compatible version: %w", err)
	}

	if declared.Major != current.Major {
		return false, fmt.Errorf(
			"incompatible major version: manifest declares %s, library speaks %d.x.x",
			declared, current.Major,
		)
	}
	if declared.Less(minimum) {
		return false, fmt.Errorf("manifest protocol %s is too old, minimum supported is %s", declared, MinCompatibleVersion)
	}
	if current.Less(declared) {
		return false, fmt.Errorf("manifest protocol %s is newer than supported %s", declared, ProtocolVersion)
	}

	return true, nil
}

// CurrentVersion returns ProtocolVersion parsed.
func CurrentVersion() Version {
	v, err := ParseVersion(ProtocolVersion)
	if err != nil {
		panic(fmt.Sprintf("invalid ProtocolVersion constant: %v", err))
	}
	return v
}
