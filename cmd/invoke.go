package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"grimoire/internal/bundle"
	"grimoire/internal/config"
	"grimoire/internal/execute"
	"grimoire/internal/fetch"
	"grimoire/internal/ui"
)

var invokeAllowUnverified bool

var invokeCmd = &cobra.Command{
	Use:   "invoke <name|path|url> [args...]",
	Short: "Invoke a stored spell",
	Long: `Invoke a spell by name from the tome, by file path, or by URL.

The archive's integrity is checked before anything runs. A tampered
spell is never executed. Remote spells are cached under the sanctum's
rune cache before invocation.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runInvoke,
}

func init() {
	invokeCmd.Flags().BoolVar(&invokeAllowUnverified, "allow-unverified", false,
		"Run spells that carry no stored sigil hash")
	// Everything after the spell reference belongs to the spell.
	invokeCmd.Flags().SetInterspersed(false)
}

func runInvoke(cmd *cobra.Command, args []string) {
	bundlePath, err := resolveSpellRef(cmd, args[0])
	if err != nil {
		exitWithError(err.Error())
	}
	log.Debug("invoking", "bundle", bundlePath, "args", args[1:])

	onDegraded := func(reason string) error {
		if !invokeAllowUnverified {
			return fmt.Errorf("spell is unverified (%s); pass --allow-unverified to run it anyway", reason)
		}
		fmt.Fprintln(os.Stderr, ui.Warning.Render("Warning: running unverified spell: "+reason))
		return nil
	}

	code, err := execute.Invoke(cmd.Context(), bundlePath, args[1:], os.Stdout, os.Stderr, onDegraded)
	if err != nil {
		var ierr *bundle.IntegrityError
		if errors.As(err, &ierr) {
			fmt.Fprintln(os.Stderr, ui.Error.Render("✗ "+ierr.Error()))
			os.Exit(1)
		}
		var nf *execute.NotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintln(os.Stderr, ui.Error.Render("Error: "+nf.Error()))
			if len(nf.WorkspaceFiles) > 0 {
				fmt.Fprintln(os.Stderr, ui.Muted.Render("  bundle contains:"))
				for _, f := range nf.WorkspaceFiles {
					fmt.Fprintln(os.Stderr, ui.Muted.Render("    "+f))
				}
			}
			os.Exit(1)
		}
		var xerr *execute.ExecutionError
		if errors.As(err, &xerr) {
			fmt.Fprintln(os.Stderr, ui.Error.Render(xerr.Error()))
			if code > 0 {
				os.Exit(code)
			}
			os.Exit(1)
		}
		exitWithError(err.Error())
	}
	if code != 0 {
		os.Exit(code)
	}
}

// resolveSpellRef turns a spell reference into a local archive path.
// URLs are fetched into the rune cache; existing file paths pass
// through; anything else is looked up in the tome by name.
func resolveSpellRef(cmd *cobra.Command, ref string) (string, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return cacheRemoteSpell(cmd, paths, ref)
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, nil
	}

	return paths.FindSpell(ref)
}

// cacheRemoteSpell downloads a remote archive into the rune cache and
// returns the cached path.
func cacheRemoteSpell(cmd *cobra.Command, paths *config.Paths, rawURL string) (string, error) {
	if err := paths.EnsureDirs(); err != nil {
		return "", err
	}

	name := filepath.Base(rawURL)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive a spell name from %s", rawURL)
	}

	fmt.Println(ui.Info.Render("Fetching remote spell: ") + rawURL)
	content, err := fetch.NewClient().FetchURL(cmd.Context(), rawURL)
	if err != nil {
		return "", err
	}

	cached := filepath.Join(paths.Runes, name)
	if err := os.WriteFile(cached, content, 0o644); err != nil {
		return "", err
	}
	log.Debug("cached remote spell", "path", cached, "bytes", len(content))
	return cached, nil
}
