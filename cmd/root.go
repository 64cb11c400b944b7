package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"grimoire/internal/ui"
)

var (
	// Version is set at build time
	Version = "dev"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cast",
	Short: "Spellbook for portable shell artifacts",
	Long: ui.Logo() + `

  Craft scripts, command macros, and directories into sealed .spell
  bundles, then invoke them anywhere with tamper detection.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(craftCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(banishCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cast %s\n", Version)
	},
}

// exitWithError prints an error and exits
func exitWithError(msg string) {
	fmt.Fprintln(os.Stderr, ui.Error.Render("Error: "+msg))
	os.Exit(1)
}

// stdinReader is shared so consecutive prompts don't lose buffered input.
var stdinReader = bufio.NewReader(os.Stdin)

// promptLine reads one line from stdin after printing a styled prompt.
func promptLine(prompt string) string {
	fmt.Print(ui.Info.Render(prompt + ": "))
	line, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(line)
}
