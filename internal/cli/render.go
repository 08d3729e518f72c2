package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cryfox/vaultcore/internal/models"
)

const (
	maskedPassword = "********"
	timeLayout     = "2006-01-02 15:04"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// passwordCell is what the password column shows for e.
func passwordCell(e models.CredentialEntry, show bool) string {
	switch e.Status {
	case models.DecryptFailed:
		return warnStyle.Render("<undecryptable>")
	case models.DecryptEmpty:
		return "(empty)"
	}
	if show {
		return e.Password
	}
	return maskedPassword
}

// renderEntries draws entries as a table. Passwords are masked unless show
// is set.
func renderEntries(entries []models.CredentialEntry, show bool) string {
	if len(entries) == 0 {
		return "No entries."
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.URL,
			e.Username,
			passwordCell(e, show),
			e.LastModified.Local().Format(timeLayout),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "URL", "USERNAME", "PASSWORD", "MODIFIED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderEntry prints a single entry as labelled lines.
func renderEntry(e models.CredentialEntry, show bool) string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n%s %s\n%s %s",
		headerStyle.Render("ID:      "), e.ID,
		headerStyle.Render("URL:     "), e.URL,
		headerStyle.Render("Username:"), e.Username,
		headerStyle.Render("Password:"), passwordCell(e, show),
		headerStyle.Render("Modified:"), e.LastModified.Local().Format(timeLayout),
	)
}
