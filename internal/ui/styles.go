// Package ui holds the terminal styles shared by every command.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// IsTTY indicates whether stdout is an interactive terminal.
// When false, UI functions produce plain text without colors or decorations.
var IsTTY = term.IsTerminal(os.Stdout.Fd())

// Palette - candlelit scriptorium
var (
	Gold      = lipgloss.Color("#F4D03F")
	Amber     = lipgloss.Color("#E59866")
	Copper    = lipgloss.Color("#DC7633")
	Purple    = lipgloss.Color("#9B59B6")
	Blue      = lipgloss.Color("#5DADE2")
	Cyan      = lipgloss.Color("#76D7C4")
	Green     = lipgloss.Color("#58D68D")
	Pink      = lipgloss.Color("#FF6B9D")
	White     = lipgloss.Color("#FDFEFE")
	Gray      = lipgloss.Color("#AAB7B8")
	DarkGray  = lipgloss.Color("#5D6D7E")
	Black     = lipgloss.Color("#1C2833")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold)

	Success = lipgloss.NewStyle().
		Foreground(Green)

	Error = lipgloss.NewStyle().
		Foreground(Pink).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Copper)

	Info = lipgloss.NewStyle().
		Foreground(Blue)

	Muted = lipgloss.NewStyle().
		Foreground(Gray)

	Highlight = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	Code = lipgloss.NewStyle().
		Foreground(Cyan)
)

var baseBadge = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true)

// ScriptBadge returns the script spell type badge
func ScriptBadge() string {
	if !IsTTY {
		return "[SCRIPT]"
	}
	return baseBadge.Background(Blue).Foreground(White).Render("✎ SCRIPT")
}

// MacroBadge returns the macro spell type badge
func MacroBadge() string {
	if !IsTTY {
		return "[MACRO]"
	}
	return baseBadge.Background(Copper).Foreground(White).Render("⌘ MACRO")
}

// BundledBadge returns the bundled spell type badge
func BundledBadge() string {
	if !IsTTY {
		return "[BUNDLED]"
	}
	return baseBadge.Background(Purple).Foreground(White).Render("✦ BUNDLED")
}

// StatusOK returns the verified status badge
func StatusOK() string {
	if !IsTTY {
		return "[OK]"
	}
	return baseBadge.Background(Green).Foreground(White).Render("✓")
}

// StatusWarn returns the degraded status badge
func StatusWarn() string {
	if !IsTTY {
		return "[!]"
	}
	return baseBadge.Background(Copper).Foreground(White).Render("!")
}

// StatusError returns the failure status badge
func StatusError() string {
	if !IsTTY {
		return "[ERR]"
	}
	return baseBadge.Background(Pink).Foreground(White).Render("✗")
}

// SectionHeader renders a titled rule of the given width.
func SectionHeader(title string, width int) string {
	if !IsTTY {
		return fmt.Sprintf("== %s ==", title)
	}
	line := strings.Repeat("─", max(width-len(title)-4, 2))
	return Title.Render("─ "+title+" ") + Muted.Render(line)
}

// InfoLine renders an indented informational line.
func InfoLine(text string) string {
	if !IsTTY {
		return "  " + text
	}
	return Info.Render("  » ") + text
}

// Logo returns the grimoire banner.
func Logo() string {
	if !IsTTY {
		return "\n  GRIMOIRE - A Spellbook for Your Shell\n"
	}
	lines := []struct {
		text  string
		color lipgloss.Color
	}{
		{"   ✦ ─────────────────────────── ✦", DarkGray},
		{"        G R I M O I R E", Gold},
		{"     a spellbook for your shell", Amber},
		{"   ✦ ─────────────────────────── ✦", DarkGray},
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(lipgloss.NewStyle().Foreground(l.color).Render(l.text))
		b.WriteString("\n")
	}
	return b.String()
}
