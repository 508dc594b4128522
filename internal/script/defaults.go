package script

import "time"

// DefaultHandlerName is used when a definition does not name its handler.
const DefaultHandlerName = "run"

// DefaultSecurityLimits provides safe default constraints for script execution
var DefaultSecurityLimits = SecurityLimits{
	MaxExecutionTime: time.Second,
	MaxAllocs:        100_000,
	AllowedPackages: []string{
		"fmt",
		"text",
		"math",
		"json",
		"enum",
	},
}

// GetDefaultSecurityLimits returns a copy of the default security limits
func GetDefaultSecurityLimits() SecurityLimits {
	limits := DefaultSecurityLimits
	limits.AllowedPackages = make([]string, len(DefaultSecurityLimits.AllowedPackages))
	copy(limits.AllowedPackages, DefaultSecurityLimits.AllowedPackages)
	return limits
}
