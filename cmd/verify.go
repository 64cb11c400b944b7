package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grimoire/internal/bundle"
	"grimoire/internal/config"
	"grimoire/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <name|path>",
	Short: "Check a spell's integrity against its sigil hash",
	Args:  cobra.ExactArgs(1),
	Run:   runVerify,
}

func runVerify(cmd *cobra.Command, args []string) {
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

	res, err := bundle.Verify(path)
	if err != nil {
		var ierr *bundle.IntegrityError
		if errors.As(err, &ierr) {
			fmt.Println(ui.StatusError() + " " + ui.Error.Render("TAMPERED"))
			fmt.Println(ui.InfoLine("stored:  " + res.StoredHash))
			fmt.Println(ui.InfoLine("current: " + res.CurrentHash))
			os.Exit(1)
		}
		exitWithError(err.Error())
	}

	if !res.Verified {
		fmt.Println(ui.StatusWarn() + " " + ui.Warning.Render("UNVERIFIED: "+res.Reason))
		return
	}

	fmt.Println(ui.StatusOK() + " " + ui.Success.Render("verified"))
	fmt.Println(ui.InfoLine("sigil " + res.StoredHash))
}
