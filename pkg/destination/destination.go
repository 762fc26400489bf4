package destination

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/navette/navette/pkg/transport"
)

// Destination is a named place transports go to, optionally bound to a school
// class and a display color. Legacy cached lists contain bare name strings
// instead of objects; decoding normalizes those immediately so nothing past
// the boundary has to care.
type Destination struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	DefaultClass string `json:"defaultClass,omitempty"`
}

func (d *Destination) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*d = Destination{Name: name, Color: transport.DefaultColor}
		return nil
	}

	type alias Destination
	aux := struct {
		*alias
		DefaultClassSnake string `json:"default_class"`
	}{alias: (*alias)(d)}
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return err
	}
	if d.DefaultClass == "" {
		d.DefaultClass = aux.DefaultClassSnake
	}
	return nil
}

// Key returns the case-insensitive dedup key shared by destinations and
// events: lowercased name and class joined with a pipe.
func Key(name, class string) string {
	return strings.ToLower(name) + "|" + strings.ToLower(class)
}

func (d Destination) Key() string {
	return Key(d.Name, d.DefaultClass)
}
