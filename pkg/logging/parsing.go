package logging

import (
	"fmt"
	"slices"
	"strings"
)

var levelNames = map[string]Level{
	"discard": DiscardLevel,
	"error":   ErrorLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
	"trace":   TraceLevel,
}

// LevelNames returns the accepted level names, most verbose last.
func LevelNames() []string {
	names := make([]string, 0, len(levelNames))
	for name := range levelNames {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return int(levelNames[b]) - int(levelNames[a])
	})
	return names
}

// String returns the name ParseLevel accepts for l.
func (l Level) String() string {
	for name, level := range levelNames {
		if level == l {
			return name
		}
	}
	return fmt.Sprintf("Level(%d)", int8(l))
}

// ParseLevel parses a level name, ignoring case and surrounding space.
func ParseLevel(name string) (Level, error) {
	if level, ok := levelNames[normalize(name)]; ok {
		return level, nil
	}
	return InfoLevel, fmt.Errorf(
		"invalid log level %q; must be one of %s",
		name, strings.Join(LevelNames(), ", "),
	)
}

// ParseFormat parses a format name, ignoring case and surrounding space.
func ParseFormat(name string) (Format, error) {
	if format := Format(normalize(name)); format == JSONFormat || format == ConsoleFormat {
		return format, nil
	}
	return "", fmt.Errorf(
		"invalid log format %q; must be one of %s, %s",
		name, ConsoleFormat, JSONFormat,
	)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
