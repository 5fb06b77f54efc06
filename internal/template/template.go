// Package template renders the small text templates scripts pass to
// file-content operations (e.g. writing a config file built from task
// context). No example in the pack reaches for a third-party templating
// engine — devcmd's own code generator (pkgs/generator/go_template.go)
// builds everything on text/template — so this stays on stdlib rather
// than importing an engine nothing here actually uses.
package template

import (
	"strings"
	"text/template"
)

// Render executes content as a text/template body against ctx and
// returns the result. Functions `default` and `upper`/`lower` mirror the
// small helper set devcmd's generator templates lean on.
func Render(content string, ctx map[string]interface{}) (string, error) {
	tmpl, err := template.New("arc").Funcs(funcMap).Parse(content)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", err
	}
	return b.String(), nil
}

var funcMap = template.FuncMap{
	"default": func(def, v interface{}) interface{} {
		if v == nil || v == "" {
			return def
		}
		return v
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}
