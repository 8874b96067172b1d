// Package intercept finds which intercepted commands and attributes a trace
// actually exercises.
package intercept

import (
	"regexp"
	"strings"

	"github.com/papercomputeco/playback/pkg/trace"
)

// Intercept kinds understood by a Source.
const (
	KindCommandLine = "command line"
	KindPython      = "python"
)

// Source yields the names intercepted for a kind of traffic.
type Source interface {
	Intercepts(kind string) []string
}

// Item pairs an intercepted name with the pattern that finds it in a trace.
type Item struct {
	Name    string
	pattern *regexp.Regexp
}

// Matches reports whether line records traffic for the item.
func (i Item) Matches(line string) bool {
	return i.pattern.MatchString(line)
}

// CommandItems builds items for intercepted command-line programs. A command
// is found anywhere among the space-separated words of a "<-CMD:" request.
func CommandItems(commands []string) []Item {
	items := make([]Item, 0, len(commands))
	for _, cmd := range commands {
		items = append(items, Item{
			Name:    cmd,
			pattern: regexp.MustCompile("<-CMD:([^ ]* )*" + regexp.QuoteMeta(cmd) + "( [^ ]*)*"),
		})
	}
	return items
}

// PythonItems builds items for intercepted attributes, including imports.
func PythonItems(attrs []string) []Item {
	items := make([]Item, 0, len(attrs))
	for _, attr := range attrs {
		items = append(items, Item{
			Name:    attr,
			pattern: regexp.MustCompile("<-PYT:(import )?" + regexp.QuoteMeta(attr)),
		})
	}
	return items
}

// SourceItems builds the command items followed by the python items of src.
func SourceItems(src Source) []Item {
	return append(CommandItems(src.Intercepts(KindCommandLine)), PythonItems(src.Intercepts(KindPython))...)
}

// FilterForReplay returns the names of items found in lines, in the order
// they are first found.
func FilterForReplay(items []Item, lines []string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, line := range lines {
		for _, item := range items {
			if seen[item.Name] || !item.Matches(line) {
				continue
			}
			seen[item.Name] = true
			found = append(found, item.Name)
		}
	}
	return found
}

// FilterFile is FilterForReplay over the lines of a trace file.
func FilterFile(items []Item, path string) ([]string, error) {
	lines, err := trace.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return FilterForReplay(items, lines), nil
}

// FilterCommands returns the intercepted commands recorded in path.
func FilterCommands(commands []string, path string) ([]string, error) {
	return FilterFile(CommandItems(commands), path)
}

// FilterPython returns the intercepted attributes recorded in path.
func FilterPython(attrs []string, path string) ([]string, error) {
	return FilterFile(PythonItems(attrs), path)
}

const instanceMarker = "Instance("

// InstanceNames extracts the names of recorded object instances. Instances
// are recorded as Instance('<class>', '<name>').
func InstanceNames(lines []string) []string {
	var names []string
	for _, line := range lines {
		rest := line
		for {
			pos := strings.Index(rest, instanceMarker)
			if pos == -1 {
				break
			}
			rest = rest[pos+len(instanceMarker):]

			sep := strings.Index(rest, "', '")
			if sep == -1 {
				break
			}
			rest = rest[sep+len("', '"):]

			end := strings.Index(rest, "'")
			if end == -1 {
				break
			}
			names = append(names, rest[:end])
			rest = rest[end:]
		}
	}
	return names
}
