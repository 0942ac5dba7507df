package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
)

func printSessions(w io.Writer, sessions []domain.ChatSession, current domain.SessionID, now time.Time, includeArchived bool) {
	shown := 0
	for i, s := range sessions {
		if s.Archived && !includeArchived {
			continue
		}
		shown++

		marker := " "
		if s.ID == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s [%d] %s", marker, i+1, titleStyle.Render(s.Title))

		details := []string{
			fmt.Sprintf("%d messages", len(s.Messages)),
			"updated " + humanize.RelTime(domain.FromTimestamp(s.LastUpdated), now, "ago", "from now"),
		}
		if s.Archived {
			details = append(details, "archived")
		}
		if s.FolderID != nil {
			details = append(details, "folder "+*s.FolderID)
		}
		if len(s.Tags) > 0 {
			details = append(details, "#"+strings.Join(s.Tags, " #"))
		}

		fmt.Fprintf(w, "%s  %s\n", line, dimStyle.Render("("+strings.Join(details, ", ")+")"))
		fmt.Fprintf(w, "      %s\n", dimStyle.Render(string(s.ID)))
	}
	if shown == 0 {
		fmt.Fprintln(w, "No sessions to show.")
	}
}

func printMessage(w io.Writer, m domain.Message) {
	switch m.Role {
	case domain.RoleUser:
		fmt.Fprintf(w, "%s %s\n", userStyle.Render("you>"), m.Content)
	default:
		label := "yvi>"
		fmt.Fprintf(w, "%s %s\n", assistantStyle.Render(label), m.Content)
		if m.Source != "" {
			fmt.Fprintf(w, "     %s\n", dimStyle.Render(m.Source))
		}
	}
}

func printTranscript(w io.Writer, s domain.ChatSession) {
	fmt.Fprintf(w, "%s\n", titleStyle.Render(s.Title))
	for _, m := range s.Messages {
		printMessage(w, m)
	}
}

func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("error: "+msg))
}
