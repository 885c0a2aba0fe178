// ABOUTME: Terminal rendering of an insight as a lipgloss card or plain text
// ABOUTME: Plain output is used when stdout is not a terminal
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/pagen/insights"
	"github.com/harperreed/pagen/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(72)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	cardLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(12)

	cardValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	cardMutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func renderCard(contact string, insight models.Insight) string {
	var s strings.Builder

	s.WriteString(cardTitleStyle.Render(contact))
	s.WriteString("\n\n")
	s.WriteString(cardLabelStyle.Render("Stage") + cardValueStyle.Render(insight.LifecycleStage) + "\n")
	s.WriteString(cardLabelStyle.Render("Confidence") + cardValueStyle.Render(fmt.Sprintf("%.0f%%", insight.ConfidenceScore*100)) + "\n")
	s.WriteString(cardLabelStyle.Render("Tags") + cardValueStyle.Render(tagList(insight.Tags)))

	switch {
	case insights.IsFallback(insight):
		s.WriteString("\n\n" + cardMutedStyle.Render("No insight available for this contact."))
	case insight.NoteContent != "":
		s.WriteString("\n\n" + cardValueStyle.Render(insight.NoteContent))
	}

	return cardStyle.Render(s.String())
}

func renderPlain(contact string, insight models.Insight) string {
	var s strings.Builder
	fmt.Fprintf(&s, "Contact:    %s\n", contact)
	fmt.Fprintf(&s, "Stage:      %s\n", insight.LifecycleStage)
	fmt.Fprintf(&s, "Confidence: %.2f\n", insight.ConfidenceScore)
	fmt.Fprintf(&s, "Tags:       %s\n", tagList(insight.Tags))
	if insight.NoteContent != "" {
		fmt.Fprintf(&s, "\n%s\n", insight.NoteContent)
	}
	return s.String()
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}
