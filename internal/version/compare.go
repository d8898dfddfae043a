package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// CheckConfigCompatibility reports whether a config file written for configVersion can be
// loaded by a binary at binaryVersion.
//
// Compatibility Rules:
//   - An empty config version is always accepted
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The config minor version must not be newer than the binary's
//
// Examples:
//   - Binary 1.2.0, Config 1.2.0 -> OK
//   - Binary 1.4.3, Config 1.2.0 -> OK (older config)
//   - Binary 1.2.0, Config 1.3.0 -> ERROR (config needs newer features)
//   - Binary 2.0.0, Config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid binary version '%s'", binaryVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version '%s'", configVersion)
	}

	if binarySemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "major version mismatch: binary is %d.x.x but config targets %d.x.x",
			binarySemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > binarySemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "minor version mismatch: config targets %d.%d.x but binary is %d.%d.x",
			configSemver.Major(), configSemver.Minor(),
			binarySemver.Major(), binarySemver.Minor())
	}

	return nil
}
