package main

import (
	"changekit/internal/theme"

	"github.com/charmbracelet/lipgloss"
)

// styles are the terminal renditions of a theme palette
type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	option  lipgloss.Style
	chosen  lipgloss.Style
	badge   lipgloss.Style
	timer   lipgloss.Style
	err     lipgloss.Style
	high    lipgloss.Style
	medium  lipgloss.Style
	low     lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	primary := lipgloss.Color(t.Primary)
	secondary := lipgloss.Color(t.Secondary)
	accent := lipgloss.Color(t.Accent)
	text := lipgloss.Color(t.Text)
	subtle := lipgloss.Color(t.TextSecondary)

	return styles{
		title:   lipgloss.NewStyle().Foreground(primary).Bold(true),
		heading: lipgloss.NewStyle().Foreground(secondary).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(subtle),
		option:  lipgloss.NewStyle().Foreground(text).PaddingLeft(2),
		chosen:  lipgloss.NewStyle().Foreground(primary).Bold(true).PaddingLeft(2),
		badge:   lipgloss.NewStyle().Foreground(secondary).Italic(true),
		timer:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		err:     lipgloss.NewStyle().Foreground(accent),
		high:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")).Bold(true),
		medium:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")).Bold(true),
		low:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
	}
}

func (a *app) styles() styles {
	if a.dark {
		return newStyles(theme.Dark)
	}
	return newStyles(theme.Light)
}

// band picks the score style for a game.Band value
func (s styles) band(band string) lipgloss.Style {
	switch band {
	case "high":
		return s.high
	case "medium":
		return s.medium
	default:
		return s.low
	}
}
