package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amansearch/internal/config"
	"github.com/Aman-CERP/amansearch/internal/index"
	"github.com/Aman-CERP/amansearch/internal/output"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage amansearch configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/amansearch/config.yaml)
  3. Project config (.amansearch.yaml)
  4. Environment variables (AMANSEARCH_*)`,
		Example: `  # Create a project config with a sample index
  amansearch config init --project

  # Show effective configuration
  amansearch config show

  # Print user config file path
  amansearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd(flags))
	cmd.AddCommand(newConfigShowCmd(flags))
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupsCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd(flags *rootFlags) *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create the user configuration file, or with --project the application's
.amansearch.yaml. With --force an existing user config is backed up and
rewritten with any new defaults filled in; your settings are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return runConfigInitProject(cmd, flags, force)
			}
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create .amansearch.yaml in the application root")

	return cmd
}

func newConfigShowCmd(flags *rootFlags) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, flags, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List user config backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			for _, b := range backups {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Restore the user config from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RestoreUserConfig(args[0]); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Restored user configuration from %s", args[0])
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	cfg := config.NewConfig()
	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Status("💡", "Use --force to rewrite it with new defaults (preserves your settings)")
			return nil
		}

		backupPath, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		if err := readConfigFile(configPath, cfg); err != nil {
			return err
		}
		if err := cfg.WriteYAML(configPath); err != nil {
			return err
		}
		out.Success("Configuration upgraded")
		out.Statusf("📁", "Location: %s", configPath)
		out.Statusf("💾", "Backup: %s", backupPath)
		return nil
	}

	if err := cfg.WriteYAML(configPath); err != nil {
		return err
	}
	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	return nil
}

func runConfigInitProject(cmd *cobra.Command, flags *rootFlags, force bool) error {
	out := output.New(cmd.OutOrStdout())

	root, err := filepath.Abs(flags.appDir)
	if err != nil {
		return err
	}
	path := filepath.Join(root, config.ProjectFile)
	if _, err := os.Stat(path); err == nil && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		return nil
	}

	cfg := &config.Config{
		Version: 1,
		Indexes: []config.IndexConfig{{
			Name:     "documents",
			Analyzer: "standard",
			Fields: []config.FieldConfig{
				{Name: "title", Type: index.TypeFullText},
				{Name: "body", Type: index.TypeFullText},
				{Name: "tags", Type: index.TypeRaw},
			},
			RequiredFields: []string{"title"},
		}},
	}
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}

	out.Success("Created project configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("📋", "Next: amansearch index documents docs.yaml")
	return nil
}

func runConfigShow(cmd *cobra.Command, flags *rootFlags, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)

	switch source {
	case "merged":
		_, merged, err := loadConfig(flags)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = merged
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		path := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'amansearch config init' to create one")
			return nil
		}
		cfg = config.NewConfig()
		if err := readConfigFile(path, cfg); err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("user (%s)", path)

	case "project":
		root, err := config.FindAppRoot(flags.appDir)
		if err != nil {
			return err
		}
		path := filepath.Join(root, config.ProjectFile)
		if _, err := os.Stat(path); err != nil {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'amansearch config init --project' to create one")
			return nil
		}
		cfg = config.NewConfig()
		if err := readConfigFile(path, cfg); err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("project (%s)", path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}

// readConfigFile overlays the file at path onto cfg without env overrides.
func readConfigFile(path string, cfg *config.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
