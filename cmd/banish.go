package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"grimoire/internal/config"
	"grimoire/internal/ui"
)

var banishForce bool

var banishCmd = &cobra.Command{
	Use:     "banish <name>",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove a spell from the tome",
	Args:    cobra.ExactArgs(1),
	Run:     runBanish,
}

func init() {
	banishCmd.Flags().BoolVarP(&banishForce, "force", "f", false, "Skip the confirmation prompt")
}

func runBanish(cmd *cobra.Command, args []string) {
	paths, err := config.GetPaths()
	if err != nil {
		exitWithError(err.Error())
	}

	path, err := paths.FindSpell(args[0])
	if err != nil {
		exitWithError(err.Error())
	}

	if !banishForce {
		answer := promptLine(fmt.Sprintf("Banish %q from the tome? [y/N]", args[0]))
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Println(ui.Muted.Render("Left untouched."))
			return
		}
	}

	if err := os.Remove(path); err != nil {
		exitWithError(err.Error())
	}
	fmt.Println(ui.Success.Render("✦ Banished: ") + path)
}
