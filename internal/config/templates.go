package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "toml":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", errors.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `# protocol version assumed by Decode
major_version = 14
minor_version = 1

# first encode buffer, doubled on overflow
initial_buffer = 64
max_depth = 16

# encode buffer size classes
buffer_min = 64
buffer_max = 1048576

# instances created per pool at startup
prealloc = 0

# field dictionary, relative to this file
# dictionary = "fields.toml"
`

const yamlTemplate = `# protocol version assumed by Decode
major_version: 14
minor_version: 1

# first encode buffer, doubled on overflow
initial_buffer: 64
max_depth: 16

# encode buffer size classes
buffer_min: 64
buffer_max: 1048576

# instances created per pool at startup
prealloc: 0

# field dictionary, relative to this file
# dictionary: fields.toml
`
