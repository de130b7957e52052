package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canopy-docs/canopy/internal/config"
	"github.com/canopy-docs/canopy/internal/core"
	"github.com/canopy-docs/canopy/internal/diagnostics"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check AI backend availability and configuration",
	Long: `doctor verifies that every configured AI CLI backend is on PATH,
reports the host's detected hardware and the concurrency canopy would
derive from it, and runs the same configuration validation canopy runs
before every pipeline.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "emit machine-readable JSON")
	rootCmd.AddCommand(doctorCmd)
}

type doctorReport struct {
	Agents      map[string]bool          `json:"agents"`
	Hardware    diagnostics.HardwareReport `json:"hardware"`
	Concurrency int                       `json:"resolved_concurrency"`
	ConfigOK    bool                      `json:"config_ok"`
	ConfigIssues []string                 `json:"config_issues,omitempty"`
}

func runDoctor(c *cobra.Command, _ []string) error {
	report := doctorReport{Agents: make(map[string]bool)}
	for _, name := range core.Agents {
		report.Agents[name] = checkCommand(name)
	}

	report.Hardware = diagnostics.CollectHardwareReport()
	report.Concurrency = diagnostics.ResolveConcurrency(report.Hardware.CPUCores, report.Hardware.TotalMemGB)

	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		report.ConfigIssues = []string{err.Error()}
	} else if verr := config.ValidateConfig(cfg); verr != nil {
		if verrs, ok := verr.(config.ValidationErrors); ok {
			for _, e := range verrs {
				report.ConfigIssues = append(report.ConfigIssues, e.Error())
			}
		} else {
			report.ConfigIssues = []string{verr.Error()}
		}
	}
	report.ConfigOK = len(report.ConfigIssues) == 0

	if doctorJSON {
		return outputJSON(report)
	}

	out := c.OutOrStdout()
	fmt.Fprintln(out, "Checking AI backends...")
	for _, name := range core.Agents {
		icon := "✓"
		if !report.Agents[name] {
			icon = "✗"
		}
		fmt.Fprintf(out, "  %s %s\n", icon, name)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Hardware: %s, %d cores / %d threads, %.1f GB RAM (%s/%s)\n",
		report.Hardware.CPUModel, report.Hardware.CPUCores, report.Hardware.CPUThreads,
		report.Hardware.TotalMemGB, report.Hardware.OS, report.Hardware.Arch)
	fmt.Fprintf(out, "Resolved concurrency: %d\n", report.Concurrency)

	fmt.Fprintln(out)
	if report.ConfigOK {
		fmt.Fprintln(out, "Configuration valid")
	} else {
		fmt.Fprintln(out, "Configuration errors:")
		for _, issue := range report.ConfigIssues {
			fmt.Fprintf(out, "  ✗ %s\n", issue)
		}
		return fmt.Errorf("configuration invalid")
	}
	return nil
}

func checkCommand(name string) bool {
	return exec.Command(name, "--version").Run() == nil
}
