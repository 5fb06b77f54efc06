package format

import (
	"reflect"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	in := map[string]interface{}{"name": "web", "port": float64(22), "tags": []interface{}{"a", "b"}}

	encoded, err := JSON.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := JSON.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, decoded) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", in, decoded)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	in := map[string]interface{}{"name": "web", "members": []interface{}{"a", "b"}}

	encoded, err := YAML.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := YAML.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, decoded) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", in, decoded)
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	in := map[string]interface{}{"name": "web", "port": int64(22)}

	encoded, err := TOML.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := TOML.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", decoded)
	}
	if got["name"] != in["name"] {
		t.Fatalf("name mismatch: want %v, got %v", in["name"], got["name"])
	}
}

func TestURLRoundTrip(t *testing.T) {
	in := map[string]string{"group": "web", "dry_run": "true"}

	encoded, err := URL.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := URL.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, decoded) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", in, decoded)
	}
}

func TestEnvRoundTrip(t *testing.T) {
	in := map[string]string{"ARC_USER": "deploy", "ARC_HOME": "/srv/app"}

	encoded, err := Env.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Env.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, decoded) {
		t.Fatalf("round trip mismatch: want %#v, got %#v", in, decoded)
	}
}
