package unit

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a description file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mp":
		return FormatMsgpack
	default:
		return FormatUnknown
	}
}

// IsUnitFile reports whether path has a description extension.
func IsUnitFile(path string) bool {
	return DetectFormat(path) != FormatUnknown
}

// Decode parses data in the given format. Unknown keys are rejected in the
// text formats so that typos do not silently drop facts.
func Decode(data []byte, format Format) (*Desc, error) {
	var desc Desc
	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), &desc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		if !meta.IsDefined("unit", "name") {
			return nil, fmt.Errorf("missing [unit].name")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported unit format %s", format)
	}
	if strings.TrimSpace(desc.Unit.Name) == "" {
		return nil, fmt.Errorf("unit name is empty")
	}
	return &desc, nil
}

// EncodeMsgpack serialises desc into the binary interchange form.
func EncodeMsgpack(desc *Desc) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(desc); err != nil {
		return nil, fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}
