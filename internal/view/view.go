// Package view derives what the user sees from a board snapshot. Build is a
// pure function; renderers never read the board themselves.
package view

import (
	"strings"

	"github.com/jobboard/tracker/internal/tracker"
)

type Dashboard struct {
	Total        int `json:"total"`
	Interviewing int `json:"interviewing"`
	Rejected     int `json:"rejected"`
}

type Tab struct {
	Filter tracker.Filter `json:"filter"`
	Label  string         `json:"label"`
	Active bool           `json:"active"`
}

type Card struct {
	ID               int            `json:"id"`
	CompanyName      string         `json:"company_name"`
	Position         string         `json:"position"`
	Meta             string         `json:"meta"`
	Status           tracker.Status `json:"status"`
	Badge            string         `json:"badge"`
	Description      string         `json:"description"`
	InterviewPressed bool           `json:"interview_pressed"`
	RejectedPressed  bool           `json:"rejected_pressed"`
}

type Page struct {
	Dashboard Dashboard      `json:"dashboard"`
	Filter    tracker.Filter `json:"filter"`
	Tabs      []Tab          `json:"tabs"`
	TabCount  int            `json:"tab_count"`
	Cards     []Card         `json:"cards"`
	Empty     bool           `json:"empty"`
}

// Build maps a snapshot to a page. Cards follow snapshot order; Empty is set
// exactly when there are no cards.
func Build(snap tracker.Snapshot) Page {
	p := Page{
		Dashboard: Dashboard{
			Total:        snap.Total,
			Interviewing: snap.Interviewing,
			Rejected:     snap.Rejected,
		},
		Filter:   snap.Filter,
		Tabs:     make([]Tab, 0, len(tracker.Filters)),
		TabCount: snap.VisibleCount(),
		Cards:    make([]Card, 0, snap.VisibleCount()),
	}

	for _, f := range tracker.Filters {
		p.Tabs = append(p.Tabs, Tab{Filter: f, Label: f.Label(), Active: f == snap.Filter})
	}

	for _, r := range snap.Visible {
		p.Cards = append(p.Cards, cardFor(r))
	}
	p.Empty = len(p.Cards) == 0

	return p
}

func cardFor(r tracker.JobRecord) Card {
	return Card{
		ID:               r.ID,
		CompanyName:      r.CompanyName,
		Position:         r.Position,
		Meta:             metaLine(r),
		Status:           r.Status,
		Badge:            r.Status.Badge(),
		Description:      r.Description,
		InterviewPressed: r.Status == tracker.StatusInterviewing,
		RejectedPressed:  r.Status == tracker.StatusRejected,
	}
}

func metaLine(r tracker.JobRecord) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{r.Location, r.Type, r.Salary} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " • ")
}
