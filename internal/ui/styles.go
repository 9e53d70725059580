package ui

import "github.com/charmbracelet/lipgloss"

// Styles.
var (
	titleBarStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	noticeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	symbolHlStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	compareStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	compareHlStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	periodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	periodActive   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	positiveBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	negativeBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	neutralBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	highlightBG    = lipgloss.Color("236")
)

// hlStyle returns a copy of s with the highlight background applied when hl
// is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

// changeStyle picks the gain or loss color for a signed value.
func changeStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// sentimentStyle colors an article's sentiment label.
func sentimentStyle(label string) lipgloss.Style {
	switch label {
	case "positive", "Positive":
		return positiveBadge
	case "negative", "Negative":
		return negativeBadge
	default:
		return neutralBadge
	}
}
