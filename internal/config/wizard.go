package config

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"text/template"

	"github.com/charmbracelet/huh"
)

// WizardResult holds the user's choices from the init wizard.
type WizardResult struct {
	Name        string
	Location    string
	WorkerCount int
	WorkerSize  string
	Ingress     bool
}

var nameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func validateProjectName(s string) error {
	if s == "" {
		return fmt.Errorf("name is required")
	}
	if len(s) > 63 {
		return fmt.Errorf("name must be at most 63 characters")
	}
	if !nameRe.MatchString(s) {
		return fmt.Errorf("name must be DNS-safe: lowercase letters, digits and dashes")
	}
	return nil
}

func serverSizeOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("CX23 - 2 vCPU, 4GB RAM", "cx23"),
		huh.NewOption("CX33 - 4 vCPU, 8GB RAM", "cx33"),
		huh.NewOption("CX43 - 8 vCPU, 16GB RAM", "cx43"),
		huh.NewOption("CX53 - 16 vCPU, 32GB RAM", "cx53"),
	}
}

// RunWizard collects the choices needed to scaffold a new project.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		Location:    "fsn1",
		WorkerCount: 2,
		WorkerSize:  "cx33",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Description("A unique name for this deployment (DNS-safe, lowercase)").
				Placeholder("my-project").
				Value(&result.Name).
				Validate(validateProjectName),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter location").
				Options(
					huh.NewOption("Falkenstein, Germany (fsn1)", "fsn1"),
					huh.NewOption("Nuremberg, Germany (nbg1)", "nbg1"),
					huh.NewOption("Helsinki, Finland (hel1)", "hel1"),
				).
				Value(&result.Location),
		),

		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Number of workers").
				Options(
					huh.NewOption("1 worker", 1),
					huh.NewOption("2 workers", 2),
					huh.NewOption("3 workers", 3),
					huh.NewOption("5 workers", 5),
				).
				Value(&result.WorkerCount),

			huh.NewSelect[string]().
				Title("Worker size").
				Description("Shared vCPU instances (cost-effective)").
				Options(serverSizeOptions()...).
				Value(&result.WorkerSize),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Install an ingress controller?").
				Description("Deploys ingress-nginx into the cluster after provisioning").
				Value(&result.Ingress),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}
	return result, nil
}

const declarationTemplate = `variables:
  location:
    default: {{ .Location }}
  worker_count:
    default: {{ .WorkerCount }}

resources:
  - name: net
    kind: network
    attributes:
      cidr: 10.0.0.0/16
      zone: eu-central

  - name: deploy-key
    kind: ssh_key
    attributes: {}

  - name: control
    kind: cluster
    attributes:
      server_type: {{ .WorkerSize }}
      image: ubuntu-24.04
      location: ${var.location}
      network: ${net.id}
      ssh_keys:
        - ${deploy-key.name}

  - name: workers
    kind: server_pool
    attributes:
      count: ${var.worker_count}
      server_type: {{ .WorkerSize }}
      image: ubuntu-24.04
      location: ${var.location}
      network: ${net.id}
      ssh_keys:
        - ${deploy-key.name}
{{- if .Ingress }}

  - name: ingress
    kind: helm_release
    attributes:
      chart: ingress-nginx
      repo: https://kubernetes.github.io/ingress-nginx
      namespace: ingress-nginx
      endpoint: ${control.endpoint}
      token: ${control.token}
    depends_on:
      - workers
{{- end }}
`

const configTemplate = `declaration: {{ .Name }}.yaml
provider:
  location: {{ .Location }}
concurrency: 4
state:
  backend: local
  path: {{ .Name }}.state.json
`

// DeclarationYAML renders the starter declaration file.
func (r *WizardResult) DeclarationYAML() ([]byte, error) {
	return renderTemplate("declaration", declarationTemplate, r)
}

// ConfigYAML renders the starter config file.
func (r *WizardResult) ConfigYAML() ([]byte, error) {
	return renderTemplate("config", configTemplate, r)
}

func renderTemplate(name, text string, data any) ([]byte, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.Bytes(), nil
}
