package format

import (
	"bytes"

	"github.com/BurntSushi/toml"
)

var TOML = tomlCodec{}

type tomlCodec struct{}

func (tomlCodec) Encode(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (tomlCodec) Decode(content string) (interface{}, error) {
	var v map[string]interface{}
	if _, err := toml.Decode(content, &v); err != nil {
		return nil, err
	}
	return v, nil
}
