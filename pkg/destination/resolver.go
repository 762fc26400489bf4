package destination

import (
	"sort"
	"strings"

	"github.com/navette/navette/pkg/transport"
)

// Resolve merges the explicit destination list with destinations inferred
// from the calendar. Explicit entries come first and win on key conflicts;
// events whose (title, class) pair is unseen contribute an auto-detected
// entry, in date-key order. The result is a derived view: callers re-derive
// it whenever either input changes instead of storing it.
func Resolve(explicit []Destination, events map[string]transport.Event) []Destination {
	seen := make(map[string]struct{}, len(explicit))
	var resolved []Destination

	for _, d := range explicit {
		if d.Name == "" {
			continue
		}
		key := d.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if d.Color == "" {
			d.Color = transport.DefaultColor
		}
		resolved = append(resolved, d)
	}

	dateKeys := make([]string, 0, len(events))
	for dateKey := range events {
		dateKeys = append(dateKeys, dateKey)
	}
	sort.Strings(dateKeys)

	for _, dateKey := range dateKeys {
		ev := events[dateKey]
		if ev.Title == "" {
			continue
		}
		key := Key(ev.Title, ev.SchoolClass)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		color := ev.Color
		if color == "" {
			color = transport.DefaultColor
		}
		resolved = append(resolved, Destination{
			Name:         ev.Title,
			Color:        color,
			DefaultClass: ev.SchoolClass,
		})
	}

	return resolved
}

// ResolveColor picks the display color for an event: the first destination
// whose name matches case-insensitively and whose class matches exactly or is
// empty (wildcard), then the event's own stored color, then the theme default.
func ResolveColor(destinations []Destination, ev transport.Event) string {
	name := strings.ToLower(ev.Title)
	class := strings.ToLower(ev.SchoolClass)

	for _, d := range destinations {
		if strings.ToLower(d.Name) != name {
			continue
		}
		destClass := strings.ToLower(d.DefaultClass)
		if (destClass == class || destClass == "") && d.Color != "" {
			return d.Color
		}
	}

	if ev.Color != "" {
		return ev.Color
	}
	return transport.DefaultColor
}
