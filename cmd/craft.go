package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"grimoire/internal/bundle"
	"grimoire/internal/config"
	"grimoire/internal/spell"
	"grimoire/internal/ui"
)

var (
	craftDescription string
	craftForce       bool
)

var craftCmd = &cobra.Command{
	Use:   "craft <script|dir|config.yaml|N name>",
	Short: "Craft a spell bundle",
	Long: `Craft a spell bundle into the tome.

Accepts four shapes of input:

  cast craft hello.py              script spell from a single file
  cast craft ./myspell/            bundled spell from a directory
  cast craft spell.yaml            bundled spell from a build config
  cast craft 3 backup              macro spell from 3 prompted commands`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runCraft,
}

func init() {
	craftCmd.Flags().StringVarP(&craftDescription, "description", "d", "", "Spell description")
	craftCmd.Flags().BoolVarP(&craftForce, "force", "f", false, "Overwrite an existing spell of the same name")
}

func runCraft(cmd *cobra.Command, args []string) {
	paths, err := config.GetPaths()
	if err != nil {
		exitWithError(err.Error())
	}
	if err := paths.EnsureDirs(); err != nil {
		exitWithError(err.Error())
	}

	builder := bundle.NewBuilder(paths.Tome)
	builder.Force = craftForce
	builder.Progress = os.Stdout

	target := args[0]
	log.Debug("crafting", "target", target, "tome", paths.Tome)

	var dest string
	switch {
	case isMacroRequest(args):
		n, _ := strconv.Atoi(target)
		dest, err = craftMacro(builder, n, args[1])

	case strings.HasSuffix(target, ".yaml") || strings.HasSuffix(target, ".yml"):
		fmt.Println(ui.Title.Render("Crafting from config: " + target))
		dest, err = builder.Config(cmd.Context(), target)

	case isDir(target):
		fmt.Println(ui.Title.Render("Crafting bundled spell: " + target))
		dest, err = builder.Dir(target, craftDescription)

	default:
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		fmt.Println(ui.Title.Render("Crafting script spell: " + target))
		dest, err = builder.Script(target, name, describeOrPrompt())
	}

	if err != nil {
		var verr *spell.ValidationError
		if errors.As(err, &verr) {
			exitWithError("invalid spell: " + verr.Error())
		}
		if errors.Is(err, os.ErrExist) {
			exitWithError(err.Error() + " (use --force to overwrite)")
		}
		exitWithError(err.Error())
	}

	d, rerr := bundle.ReadDescriptor(dest)
	fmt.Println()
	fmt.Println(ui.Success.Render("✦ Spell sealed: ") + ui.Highlight.Render(dest))
	if rerr == nil && d.SigilHash != "" {
		fmt.Println(ui.InfoLine("sigil " + d.SigilHash[:16] + "…"))
	}
}

// isMacroRequest matches the "cast craft N name" form: a positive
// command count followed by the spell name.
func isMacroRequest(args []string) bool {
	if len(args) != 2 {
		return false
	}
	n, err := strconv.Atoi(args[0])
	return err == nil && n > 0
}

func craftMacro(builder *bundle.Builder, n int, name string) (string, error) {
	fmt.Println(ui.Title.Render(fmt.Sprintf("Crafting macro spell %q from %d commands", name, n)))
	commands := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		line := promptLine(fmt.Sprintf("  command %d/%d", i, n))
		if line == "" {
			return "", fmt.Errorf("command %d is empty", i)
		}
		commands = append(commands, line)
	}
	description := craftDescription
	if description == "" {
		description = promptLine("  description")
	}
	return builder.Macro(name, description, commands)
}

func describeOrPrompt() string {
	if craftDescription != "" {
		return craftDescription
	}
	return promptLine("Description")
}

func isDir(path string) bool {
	info, err := os.Stat(filepath.Clean(path))
	return err == nil && info.IsDir()
}
