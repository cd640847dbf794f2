// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import "github.com/charmbracelet/lipgloss"

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// ColorResolved is the dimmed marker color for resolved threads.
var ColorResolved lipgloss.Color

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	MutedStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style

	// Code view.
	LineNumberStyle     lipgloss.Style
	GutterStyle         lipgloss.Style
	GutterResolvedStyle lipgloss.Style
	GutterActiveStyle   lipgloss.Style
	HighlightStyle      lipgloss.Style
	CursorStyle         lipgloss.Style
	StatusBarStyle      lipgloss.Style

	// Thread panel.
	PanelStyle         lipgloss.Style
	PanelTitleStyle    lipgloss.Style
	AuthorStyle        lipgloss.Style
	TimestampStyle     lipgloss.Style
	ResolvedBadgeStyle lipgloss.Style
	DraftBadgeStyle    lipgloss.Style
	ComposerStyle      lipgloss.Style
	HelpStyle          lipgloss.Style

	// Disambiguation overlay.
	OverlayStyle        lipgloss.Style
	OverlayItemStyle    lipgloss.Style
	OverlayItemKeyStyle lipgloss.Style

	// Toasts.
	ToastInfoStyle    lipgloss.Style
	ToastSuccessStyle lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p
	ColorResolved = Blend(p.Success, p.Background, 0.45)

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	LineNumberStyle = lipgloss.NewStyle().Foreground(p.Muted)
	GutterStyle = lipgloss.NewStyle().Foreground(p.Warning)
	GutterResolvedStyle = lipgloss.NewStyle().Foreground(ColorResolved)
	GutterActiveStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	HighlightStyle = lipgloss.NewStyle().Background(p.Surface)
	CursorStyle = lipgloss.NewStyle().Reverse(true)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Background(p.Surface).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(0, 1)
	PanelTitleStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	AuthorStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	TimestampStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ResolvedBadgeStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Success).
		Padding(0, 1)
	DraftBadgeStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Warning).
		Padding(0, 1)
	ComposerStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted)

	OverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Warning).
		Padding(0, 1)
	OverlayItemStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	OverlayItemKeyStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)

	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	ToastInfoStyle = toast.BorderForeground(p.Secondary)
	ToastSuccessStyle = toast.BorderForeground(p.Success)
	ToastWarningStyle = toast.BorderForeground(p.Warning)
	ToastErrorStyle = toast.BorderForeground(p.Error)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
