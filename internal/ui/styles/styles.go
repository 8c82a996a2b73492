// Package styles holds the palette and shared lipgloss styles of the tabs.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Values are ANSI 256 colour codes.
var (
	Primary = lipgloss.Color("205")
	Subtle  = lipgloss.Color("240")

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	Background = lipgloss.Color("235")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// Layout.
var (
	// DocStyle wraps the content of every tab.
	DocStyle = lipgloss.NewStyle().Margin(1, 2).Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)

	// CardStyle frames one section of a tab, titled with CardTitleStyle.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(1, 2).
			MarginBottom(1)
	CardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)

	// RangeBadgeStyle frames the active preset next to a tab title.
	RangeBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// Inputs.
var (
	FocusedStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary)

	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Primary).
				Padding(0, 1)
	BlurredBorderStyle = FocusedBorderStyle.BorderForeground(Subtle)
)

// Help.
var (
	HelpStyle     = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	HelpDescStyle = lipgloss.NewStyle().Foreground(TextSecondary)

	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Primary).
			Background(Background).
			Padding(1, 3)
)

// Status text.
var (
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle    = lipgloss.NewStyle().Foreground(Info)
)

// GetZoneStyle returns the style for the timezone indicator. A pending
// realignment is highlighted until the corrected data arrives.
func GetZoneStyle(realigning bool) lipgloss.Style {
	if realigning {
		return WarningTextStyle
	}
	return SuccessTextStyle
}

// CenterBoth places content in the middle of a width x height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
