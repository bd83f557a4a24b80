package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/opsgraph/opsgraph/internal/config"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive scaffold wizard.
	runWizard = config.RunWizard

	// writeFile writes data to a file.
	writeFile = os.WriteFile

	// stdinIsTerminal reports whether an interactive wizard can run.
	stdinIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
)

// Init runs the scaffold wizard and writes a starter declaration plus a
// config file pointing at it.
func Init(ctx context.Context) error {
	if !stdinIsTerminal() {
		return fmt.Errorf("init is interactive and needs a terminal")
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return err
	}

	declPath := result.Name + ".yaml"
	for _, path := range []string{declPath, defaultConfigPath} {
		if fileExists(path) {
			fmt.Printf("Warning: %s already exists and will be overwritten.\n", path)
		}
	}

	decl, err := result.DeclarationYAML()
	if err != nil {
		return err
	}
	cfgBytes, err := result.ConfigYAML()
	if err != nil {
		return err
	}

	if err := writeFile(declPath, decl, 0o600); err != nil {
		return fmt.Errorf("failed to write declaration: %w", err)
	}
	if err := writeFile(defaultConfigPath, cfgBytes, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(declPath, result)
	return nil
}

func printWelcome() {
	fmt.Println()
	fmt.Println("opsgraph - dependency-ordered provisioning")
	fmt.Println("==========================================")
	fmt.Println()
	fmt.Println("This wizard scaffolds a declaration with sensible defaults.")
	fmt.Println()
}

func printInitSuccess(declPath string, r *config.WizardResult) {
	fmt.Println()
	fmt.Println("Project scaffolded!")
	fmt.Println()
	fmt.Printf("  Declaration: %s\n", declPath)
	fmt.Printf("  Config:      %s\n", defaultConfigPath)
	fmt.Println()
	fmt.Printf("  Location: %s\n", r.Location)
	fmt.Printf("  Workers:  %d x %s\n", r.WorkerCount, r.WorkerSize)
	if r.Ingress {
		fmt.Println("  Ingress:  ingress-nginx")
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review the declaration and adjust attributes.")
	fmt.Println("  2. Export HCLOUD_TOKEN.")
	fmt.Println("  3. Run 'opsgraph apply'.")
}
