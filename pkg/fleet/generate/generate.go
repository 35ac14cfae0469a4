// Package generate renders a fully-resolved runner group into the
// bootstrap artifacts the manager instance consumes: the runner-manager
// configuration document, the cloud-init user data that installs and
// starts everything, and the reload hook that re-runs bootstrap when
// the document changes.
package generate

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"text/template"

	"github.com/meridianops/runnerfleet/pkg/fleet"
	"github.com/meridianops/runnerfleet/pkg/fleet/identity"
	"github.com/meridianops/runnerfleet/pkg/fleet/validate"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/sprig/v3"
)

// ConfigPath is where the bootstrap document lands on the manager
// instance; the runner agent and the reload hook both watch it.
const ConfigPath = "/etc/gitlab-runner/config.toml"

// ErrDiagnostics is returned when generation is refused because the
// validator reported error-severity findings.
var ErrDiagnostics = errors.New("configuration has unresolved errors")

//go:embed templates
var templates embed.FS

type Input struct {
	Config      fleet.RunnerConfig
	Naming      fleet.Naming
	Binding     identity.InstanceProfileBinding
	Diagnostics []validate.Diagnostic
}

type Artifacts struct {
	ConfigTOML    string
	CloudInit     string
	ReloadPath    string
	ReloadService string
}

// Generate renders the bootstrap artifacts. It fails fast, emitting
// nothing, when the input carries any error-severity diagnostic;
// warnings flow through.
func Generate(in Input) (*Artifacts, error) {
	if errs := validate.Errors(in.Diagnostics); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDiagnostics, errs[0].Message)
	}

	configTOML, err := encodeDocument(document(in.Config, in.Naming, in.Binding))
	if err != nil {
		return nil, fmt.Errorf("failed to encode bootstrap document: %w", err)
	}

	reloadPath, err := render("templates/reload.path.tmpl", map[string]any{
		"ConfigPath": ConfigPath,
	})
	if err != nil {
		return nil, err
	}

	reloadService, err := render("templates/reload.service.tmpl", map[string]any{
		"Name": in.Config.Name,
	})
	if err != nil {
		return nil, err
	}

	cloudInit, err := render("templates/cloud-init.yaml.tmpl", map[string]any{
		"Name":          in.Config.Name,
		"Stack":         in.Naming.Stack,
		"ConfigPath":    ConfigPath,
		"ConfigTOML":    configTOML,
		"ReloadPath":    reloadPath,
		"ReloadService": reloadService,
	})
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		ConfigTOML:    configTOML,
		CloudInit:     cloudInit,
		ReloadPath:    reloadPath,
		ReloadService: reloadService,
	}, nil
}

func encodeDocument(doc Document) (string, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func render(name string, data any) (string, error) {
	tpl := template.New(path.Base(name)).Funcs(sprig.FuncMap())
	tpl, err := tpl.ParseFS(templates, name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
