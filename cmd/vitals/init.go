package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/internal/config"
	"github.com/vitals-dev/vitals/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a vitals configuration file",
		Long: `Write a starter configuration for this project.

The generated file documents every setting and ships with healing
disabled. Use --interactive for a guided setup, --minimal for a
compact file with only the essentials.

Examples:
  # Create .vitals.yaml in the current directory
  vitals init

  # Guided setup
  vitals init -i

  # Compact config at a custom path
  vitals init --minimal --config configs/vitals.yaml`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Where to write the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Replace an existing config file")
	cmd.Flags().Bool("minimal", false,
		"Write the short template with just the common settings")
	cmd.Flags().BoolP("interactive", "i", false,
		"Walk through project type, strictness, and healing setup")

	return cmd
}

// initChoices carries everything the wizard (or the flag defaults)
// decides about the file to generate.
type initChoices struct {
	project    config.ProjectType
	strictness config.Strictness
	enableHeal bool
	path       string
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")

	choices := initChoices{
		project:    config.ProjectTypeGeneric,
		strictness: config.StrictnessStandard,
		path:       configPath,
	}
	if interactive {
		var err error
		choices, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(choices.path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", choices.path)
		}
	}
	if dir := filepath.Dir(choices.path); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}

	content := config.GetFullConfigTemplate(choices.project, choices.strictness)
	if minimal {
		content = config.GetMinimalConfigTemplate()
	}
	if choices.enableHeal {
		// Templates ship with auto-apply off; the wizard opt-in flips it
		content = strings.Replace(content, "enabled: false", "enabled: true", 1)
	}

	if err := os.WriteFile(choices.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	displayPath := choices.path
	if abs, err := filepath.Abs(choices.path); err == nil {
		displayPath = abs
	}
	fmt.Printf("Wrote %s\n", displayPath)
	fmt.Println("\nRun 'vitals scan .' to scan your project.")

	return nil
}

type setupOption struct {
	Label       string
	Description string
}

// pickOption renders one wizard question and returns the chosen index.
func pickOption(label string, options []setupOption) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: options,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }}{{ if .Description }} - {{ .Description | faint }}{{ end }}",
			Inactive: "   {{ .Label | white }}{{ if .Description }} - {{ .Description | faint }}{{ end }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	idx, _, err := prompt.Run()
	return idx, err
}

func runInteractiveSetup(defaultConfigPath string) (initChoices, error) {
	choices := initChoices{path: defaultConfigPath}

	fmt.Println()
	fmt.Println("vitals Configuration Setup")
	fmt.Println("==========================")
	fmt.Println()

	projectIdx, err := pickOption("What type of project is this?", []setupOption{
		{Label: "Generic JavaScript/TypeScript"},
		{Label: "React/Next.js"},
		{Label: "Vue/Nuxt"},
		{Label: "Node.js Backend"},
	})
	if err != nil {
		return choices, fmt.Errorf("project selection cancelled: %w", err)
	}
	choices.project = []config.ProjectType{
		config.ProjectTypeGeneric,
		config.ProjectTypeReact,
		config.ProjectTypeVue,
		config.ProjectTypeNodeBackend,
	}[projectIdx]

	fmt.Println()

	strictnessIdx, err := pickOption("How strict should the analysis be?", []setupOption{
		{Label: "Standard (recommended)", Description: "Balanced thresholds for most projects"},
		{Label: "Relaxed", Description: "Higher thresholds, fewer issues reported"},
		{Label: "Strict", Description: "Lower thresholds, CI/CD enforcement"},
	})
	if err != nil {
		return choices, fmt.Errorf("strictness selection cancelled: %w", err)
	}
	choices.strictness = []config.Strictness{
		config.StrictnessStandard,
		config.StrictnessRelaxed,
		config.StrictnessStrict,
	}[strictnessIdx]

	fmt.Println()

	healIdx, err := pickOption("Enable self-healing auto-apply?", []setupOption{
		{Label: "No (recommended)", Description: "Track fix candidates, apply them manually"},
		{Label: "Yes", Description: "Auto-apply fixes above the confidence threshold"},
	})
	if err != nil {
		return choices, fmt.Errorf("self-healing selection cancelled: %w", err)
	}
	choices.enableHeal = healIdx == 1

	fmt.Println()

	pathPrompt := promptui.Prompt{
		Label:   "Config file path",
		Default: defaultConfigPath,
	}
	outputPath, err := pathPrompt.Run()
	if err != nil {
		return choices, fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath != "" {
		choices.path = outputPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", choices.path)

	return choices, nil
}
