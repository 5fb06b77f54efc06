package format

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

var YAML = yamlCodec{}

type yamlCodec struct{}

func (yamlCodec) Encode(v interface{}) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (yamlCodec) Decode(content string) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return nil, err
	}
	return normalizeYAML(v), nil
}

// normalizeYAML recursively converts map[string]interface{} keys that
// yaml.v3 may decode as map[interface{}]interface{} in nested documents
// into plain map[string]interface{}, so callers (notably the script
// bindings building Lua tables) never have to special-case yaml.v3's
// decoding quirks.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
