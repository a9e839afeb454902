package valobj

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization format for config files and external schemas.
type Format int

const (
	NoFormat Format = iota
	JSON
	YAML
)

func (f Format) String() string {
	switch f {
	case NoFormat:
		return "none"
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses the name of a Format. Matching is not case-sensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case JSON.String(), "jsn":
		return JSON, nil
	case YAML.String(), "yml":
		return YAML, nil
	default:
		return NoFormat, fmt.Errorf("unknown Format %q", s)
	}
}

// Extensions returns the file extensions (without the leading dot) that data
// of format f is commonly saved under.
func (f Format) Extensions() []string {
	switch f {
	case JSON:
		return []string{"json", "jsn"}
	case YAML:
		return []string{"yaml", "yml"}
	default:
		return nil
	}
}

// Marshal encodes v in format f.
func (f Format) Marshal(v interface{}) ([]byte, error) {
	switch f {
	case JSON:
		return json.Marshal(v)
	case YAML:
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("cannot marshal data in format %q", f.String())
	}
}

// Unmarshal decodes data in format f into v.
func (f Format) Unmarshal(data []byte, v interface{}) error {
	switch f {
	case JSON:
		return json.Unmarshal(data, v)
	case YAML:
		return yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("cannot unmarshal data in format %q", f.String())
	}
}
