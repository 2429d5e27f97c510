package cli

import "github.com/charmbracelet/lipgloss"

// Colours adapt to light and dark terminals. Remaining grams use good when
// positive and error when the day is over budget.
var (
	primaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#C05E00", Dark: "#FF8C00"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C00000", Dark: "#FF5F5F"})
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8A6D00", Dark: "#FFD75F"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007A7A", Dark: "#00CFCF"})
	silentStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#808080"})
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#262626", Dark: "#D0D0D0"})
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#3CB371"})
)

func Primary(s string) string { return primaryStyle.Render(s) }
func Error(s string) string   { return errorStyle.Render(s) }
func Warning(s string) string { return warningStyle.Render(s) }
func Info(s string) string    { return infoStyle.Render(s) }
func Silent(s string) string  { return silentStyle.Render(s) }
func Text(s string) string    { return textStyle.Render(s) }
func Good(s string) string    { return goodStyle.Render(s) }
