package manifest

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes the known keys in a fixed order followed by the unknown
// keys sorted by name. Absent keys are omitted.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	field := func(key string, value any) error {
		encoded, err := encodeValue(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := encodeValue(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	known := []struct {
		key     string
		present bool
		value   any
	}{
		{"name", true, m.name},
		{"version", m.version != nil, m.version},
		{"main", m.main != nil, m.main},
		{"bin", m.bin != nil, m.bin},
		{"files", m.files != nil, m.files},
		{"scripts", m.scripts != nil, m.scripts},
		{"dependencies", m.dependencies != nil, m.dependencies},
		{"linkDependencies", m.linkDependencies != nil, m.linkDependencies},
	}
	for _, k := range known {
		if !k.present {
			continue
		}
		if err := field(k.key, k.value); err != nil {
			return nil, err
		}
	}

	for _, key := range sortedKeys(m.extra) {
		if err := field(key, m.extra[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
