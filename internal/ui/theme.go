package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles styles, symbols and the panel border.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done, Help, Highlight, Overdue      lipgloss.Style
	PriorityLow, PriorityMedium, PriorityHigh     lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:           "classic",
		Title:          lipgloss.NewStyle().Bold(true),
		Muted:          lipgloss.NewStyle().Faint(true),
		Accent:         lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:          lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Pending:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:       lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:           lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Help:           lipgloss.NewStyle().Faint(true),
		Highlight:      lipgloss.NewStyle().Background(lipgloss.Color("226")).Foreground(lipgloss.Color("0")),
		Overdue:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		BoxUnchecked:   "☐",
		BoxChecked:     "☑",
		SymDone:        "✔",
		SymPending:     "•",
		Border:         lipgloss.NormalBorder(),
		BorderColor:    lipgloss.Color("8"),
	}
}

func neon() Theme {
	t := classic()
	t.Name = "neon"
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	t.Highlight = lipgloss.NewStyle().Background(lipgloss.Color("13")).Foreground(lipgloss.Color("0"))
	t.BoxUnchecked, t.BoxChecked = "◻", "◼"
	t.Border = lipgloss.RoundedBorder()
	t.BorderColor = lipgloss.Color("13")
	return t
}

func mono() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain, Pending: plain,
		Selected: plain.Reverse(true), Done: plain, Help: plain, Highlight: plain.Underline(true),
		Overdue: plain, PriorityLow: plain, PriorityMedium: plain, PriorityHigh: plain,
		BoxUnchecked: "[ ]", BoxChecked: "[x]",
		SymDone: "x", SymPending: "-",
		Border:      lipgloss.ASCIIBorder(),
		BorderColor: lipgloss.NoColor{},
	}
}

// SetTheme switches the theme used by every helper. Names: classic, neon, mono.
func SetTheme(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "classic":
		current = classic()
	case "neon":
		current = neon()
	case "mono":
		current = mono()
		SetColorForcing(false, true)
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}

// Current exposes what renderers need.
func Current() Theme { return current }
