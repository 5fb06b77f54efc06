package format

import "encoding/json"

// JSON codecs. No third-party JSON library appears anywhere in the
// example pack, so encoding/json stays: this is the one ambient concern
// the corpus itself treats as a stdlib matter.
var JSON = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (jsonCodec) EncodePretty(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (jsonCodec) Decode(content string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, err
	}
	return v, nil
}
