package diag

import "fmt"

// Severity defines the importance of a diagnostic. Values match the docutils
// system message levels so thresholds from configuration map 1:1.
type Severity uint8

const (
	SevDebug Severity = iota
	SevInfo
	// SevWarning is the default report threshold.
	SevWarning
	SevError
	// SevSevere is the default halt threshold: parsing stops.
	SevSevere
)

func (s Severity) String() string {
	switch s {
	case SevDebug:
		return "DEBUG"
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevSevere:
		return "SEVERE"
	}
	return "UNKNOWN"
}

// Level returns the numeric docutils level.
func (s Severity) Level() int {
	return int(s)
}

// SeverityFromLevel converts a numeric level (0..4) into a Severity.
// Levels above SEVERE are accepted and mean "never".
func SeverityFromLevel(level int) (Severity, error) {
	if level < 0 {
		return 0, fmt.Errorf("invalid severity level %d", level)
	}
	if level > 255 {
		level = 255
	}
	return Severity(level), nil
}
