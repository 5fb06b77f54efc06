package format

import (
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Env codecs read/write the KEY=VALUE dotenv format via godotenv, the
// same library cmd/arc uses to load .env files at startup (see
// cmd/arc/global.go), so scripts get the identical parsing semantics
// (quoting, comments, multi-line values) when they encode/decode env
// text themselves.
var Env = envCodec{}

type envCodec struct{}

func (envCodec) Encode(v map[string]string) (string, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		line, err := godotenv.Marshal(map[string]string{k: v[k]})
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (envCodec) Decode(content string) (map[string]string, error) {
	return godotenv.Unmarshal(content)
}
