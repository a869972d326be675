package model

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateData is the render context for templated environment values.
type templateData struct {
	Application struct {
		Name string
	}
	Service struct {
		Name string
	}
}

// renderTemplated renders a templated environment value. Process environment
// access is removed from the function map so descriptors cannot read the
// server's own environment.
func renderTemplated(value string, app AppName, service string) (string, error) {
	funcs := sprig.TxtFuncMap()
	delete(funcs, "env")
	delete(funcs, "expandenv")
	t, err := template.New("env").Funcs(funcs).Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var data templateData
	data.Application.Name = app.String()
	data.Service.Name = service
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return sb.String(), nil
}
