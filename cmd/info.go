package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"grimoire/internal/bundle"
	"grimoire/internal/config"
	"grimoire/internal/sigil"
	"grimoire/internal/ui"
)

var infoCmd = &cobra.Command{
	Use:   "info <name|path>",
	Short: "Show a spell's descriptor, contents, and sigil",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func runInfo(cmd *cobra.Command, args []string) {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		paths, perr := config.GetPaths()
		if perr != nil {
			exitWithError(perr.Error())
		}
		path, perr = paths.FindSpell(args[0])
		if perr != nil {
			exitWithError(perr.Error())
		}
	}

	d, err := bundle.ReadDescriptor(path)
	if err != nil {
		exitWithError(err.Error())
	}

	fmt.Println(ui.SectionHeader(d.Name, 60))
	fmt.Println(ui.InfoLine("type:        " + string(d.Type) + "  " + typeBadge(d.Type)))
	fmt.Println(ui.InfoLine("version:     " + d.Version))
	if d.Description != "" {
		fmt.Println(ui.InfoLine("description: " + d.Description))
	}
	fmt.Println(ui.InfoLine("shell:       " + string(d.Shell)))
	fmt.Println(ui.InfoLine("entry point: " + d.EntryPoint))
	if !d.CreatedAt.IsZero() {
		fmt.Println(ui.InfoLine("created:     " + d.CreatedAt.Format("2006-01-02 15:04:05 UTC")))
	}

	if len(d.Dependencies) > 0 {
		fmt.Println()
		fmt.Println(ui.SectionHeader("Dependencies", 60))
		ecosystems := make([]string, 0, len(d.Dependencies))
		for eco := range d.Dependencies {
			ecosystems = append(ecosystems, eco)
		}
		sort.Strings(ecosystems)
		for _, eco := range ecosystems {
			fmt.Println(ui.InfoLine(eco + ": " + strings.Join(d.Dependencies[eco], ", ")))
		}
	}

	entries, err := bundle.ListEntries(path)
	if err == nil && len(entries) > 0 {
		fmt.Println()
		fmt.Println(ui.SectionHeader("Contents", 60))
		for _, e := range entries {
			fmt.Println(ui.Muted.Render("    " + e))
		}
	}

	if d.SigilHash != "" {
		fmt.Println()
		fmt.Println(ui.SectionHeader("Sigil", 60))
		fmt.Println(ui.InfoLine(d.SigilHash))
		if band := sigil.Preview(d.SigilHash); band != "" {
			fmt.Println("    " + band)
		}
	}
}
