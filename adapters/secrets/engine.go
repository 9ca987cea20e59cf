// Package secrets provides SecretProvider implementations and the template
// engine that substitutes secret references in manifest text.
package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Lookup is the backend a provider renders against.
type Lookup interface {
	// Secret returns the value stored under key.
	Secret(ctx context.Context, key string) (string, error)
	// Field returns a named field of a stored item.
	Field(ctx context.Context, item, field string) (string, error)
}

// Delims are the action delimiters of secret references. Manifests routinely carry
// literal {{ }} (alerting rules, Helm-style values), so references use <% %> by default.
type Delims struct {
	Left  string
	Right string
}

var DefaultDelims = Delims{Left: "<%", Right: "%>"}

func (d Delims) orDefault() Delims {
	if d.Left == "" || d.Right == "" {
		return DefaultDelims
	}
	return d
}

// RenderText substitutes secret references written as template actions:
//
//	<% secret "key" %>  <% secretB64 "key" %>  <% field "item" "name" %>
//
// plus the sprig function library. Text outside the delimiters is copied verbatim.
// Lookups that fail render as empty strings and every failure is returned, so one
// pass reports all unresolved references.
func RenderText(ctx context.Context, l Lookup, d Delims, name, text string) (string, []error) {
	d = d.orDefault()
	if !strings.Contains(text, d.Left) {
		return text, nil
	}
	var errs []error
	record := func(err error) {
		errs = append(errs, err)
	}

	funcs := sprig.TxtFuncMap()
	funcs["secret"] = func(key string) string {
		v, err := l.Secret(ctx, strings.TrimSpace(key))
		if err != nil {
			record(fmt.Errorf("secret %q: %w", key, err))
			return ""
		}
		return v
	}
	funcs["secretB64"] = func(key string) string {
		v, err := l.Secret(ctx, strings.TrimSpace(key))
		if err != nil {
			record(fmt.Errorf("secret %q: %w", key, err))
			return ""
		}
		return base64.StdEncoding.EncodeToString([]byte(v))
	}
	funcs["field"] = func(item, field string) string {
		v, err := l.Field(ctx, strings.TrimSpace(item), strings.TrimSpace(field))
		if err != nil {
			record(fmt.Errorf("field %q of %q: %w", field, item, err))
			return ""
		}
		return v
	}

	t, err := template.New(name).Delims(d.Left, d.Right).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", []error{fmt.Errorf("parse secret references: %w", err)}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, nil); err != nil {
		record(fmt.Errorf("render secret references: %w", err))
	}
	if len(errs) > 0 {
		return "", errs
	}
	return buf.String(), nil
}
