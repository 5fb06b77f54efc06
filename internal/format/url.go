package format

import (
	"net/url"
	"sort"
)

// URL codecs handle the application/x-www-form-urlencoded query-string
// shape. No example in the pack reaches for a third-party query-string
// library, and net/url's Values type is already the idiomatic way Go
// code in this ecosystem round-trips query strings, so stdlib stays.
var URL = urlCodec{}

type urlCodec struct{}

func (urlCodec) Encode(v map[string]string) (string, error) {
	values := url.Values{}
	for k, val := range v {
		values.Set(k, val)
	}
	return values.Encode(), nil
}

func (urlCodec) Decode(content string) (map[string]string, error) {
	values, err := url.ParseQuery(content)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = values.Get(k)
	}
	return out, nil
}
