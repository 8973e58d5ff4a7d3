package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// RenderHTML writes the full page. Each call produces a complete document.
func RenderHTML(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}

// RenderText writes a plain-text version of the page for terminals and
// scripted sessions.
func RenderText(w io.Writer, p Page) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total: %d  Interviewing: %d  Rejected: %d\n",
		p.Dashboard.Total, p.Dashboard.Interviewing, p.Dashboard.Rejected)

	tabs := make([]string, 0, len(p.Tabs))
	for _, t := range p.Tabs {
		if t.Active {
			tabs = append(tabs, "["+t.Label+"]")
		} else {
			tabs = append(tabs, t.Label)
		}
	}
	fmt.Fprintf(&b, "%s  (%d jobs)\n", strings.Join(tabs, " | "), p.TabCount)

	if p.Empty {
		b.WriteString("\n  No jobs available\n")
	}
	for _, c := range p.Cards {
		fmt.Fprintf(&b, "\n#%d %s - %s\n", c.ID, c.CompanyName, c.Position)
		fmt.Fprintf(&b, "   %s\n", c.Meta)
		fmt.Fprintf(&b, "   %s\n", c.Badge)
		fmt.Fprintf(&b, "   %s\n", c.Description)
		fmt.Fprintf(&b, "   %s %s\n", button("INTERVIEW", c.InterviewPressed), button("REJECTED", c.RejectedPressed))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func button(label string, pressed bool) string {
	if pressed {
		return "(*" + label + "*)"
	}
	return "( " + label + " )"
}
