package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"grimoire/internal/bundle"
	"grimoire/internal/config"
	"grimoire/internal/spell"
	"grimoire/internal/ui"
)

var indexVerify bool

var indexCmd = &cobra.Command{
	Use:     "index",
	Aliases: []string{"list", "ls"},
	Short:   "List the spells stored in the tome",
	Args:    cobra.NoArgs,
	Run:     runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexVerify, "verify", false, "Check each spell's integrity while listing")
}

func runIndex(cmd *cobra.Command, args []string) {
	paths, err := config.GetPaths()
	if err != nil {
		exitWithError(err.Error())
	}

	archives, err := paths.ListSpells()
	if err != nil {
		exitWithError(err.Error())
	}
	if len(archives) == 0 {
		fmt.Println(ui.Muted.Render("The tome is empty. Craft a spell with: cast craft <script>"))
		return
	}

	fmt.Println(ui.SectionHeader(fmt.Sprintf("Tome — %d spell(s)", len(archives)), 60))
	for _, path := range archives {
		printIndexLine(path)
	}
}

func printIndexLine(path string) {
	name := strings.TrimSuffix(filepath.Base(path), config.BundleExt)

	d, err := bundle.ReadDescriptor(path)
	if err != nil {
		// Legacy non-archive spell file; list it without metadata.
		fmt.Printf("  %s %s %s\n", ui.StatusWarn(), ui.Highlight.Render(name),
			ui.Muted.Render("(legacy file)"))
		return
	}

	badge := typeBadge(d.Type)
	line := fmt.Sprintf("  %s %s %s",
		badge,
		ui.Highlight.Render(d.Name),
		ui.Muted.Render("v"+d.Version))
	if d.Description != "" {
		line += "  " + ui.Muted.Render(d.Description)
	}

	if indexVerify {
		res, verr := bundle.Verify(path)
		switch {
		case verr != nil:
			line += " " + ui.StatusError()
		case res.Verified:
			line += " " + ui.StatusOK()
		default:
			line += " " + ui.StatusWarn()
		}
	}
	fmt.Println(line)
}

func typeBadge(t spell.Type) string {
	switch t {
	case spell.TypeScript:
		return ui.ScriptBadge()
	case spell.TypeMacro:
		return ui.MacroBadge()
	default:
		return ui.BundledBadge()
	}
}
