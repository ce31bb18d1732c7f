// Package report renders the printable HTML exports of both collections.
//
// Reports are self-contained documents (inline CSS, no scripts) suitable
// for printing to PDF from a browser. Markup lives in the .templ files;
// run `templ generate` after editing them.
package report

//go:generate templ generate

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/registers/internal/core"
)

// Options controls report headers.
type Options struct {
	OrgName string    // printed in the header and footer
	Now     time.Time // export time; overdue flags are computed against it
}

func (o Options) orgName() string {
	if strings.TrimSpace(o.OrgName) == "" {
		return "Registers"
	}
	return o.OrgName
}

// Brand colours
const (
	colorCharcoal = "#3D3D3D"
	colorBlue     = "#4AABDB"
	colorGreen    = "#8DC63F"
	colorRed      = "#E84040"
	colorMint     = "#2ECC7A"
	colorGold     = "#D4A820"
)

var actionStatusColors = map[string]string{
	core.StatusNotStarted: colorBlue,
	core.StatusInProgress: colorGreen,
	core.StatusDone:       colorMint,
	core.StatusBlocked:    colorRed,
	core.StatusDeferred:   colorGold,
}

var registerStatusColors = map[string]string{
	core.StatusOpen:       colorBlue,
	core.StatusInProgress: colorGreen,
	core.StatusResolved:   colorMint,
	core.StatusParked:     colorGold,
}

var typeColors = map[string]string{
	core.TypeIdea:  colorBlue,
	core.TypeIssue: colorRed,
}

// stat is one summary tile.
type stat struct {
	label string
	value int
	color string
}

// page describes the report shell around the cards.
type page struct {
	title    string // after the org name in the header
	subtitle string
	stats    []stat
	noun     string // footer count: "1 action"
	plural   string // footer count: "3 actions"
	count    int
}

// shown picks the entries printed as cards: filtered when it has any,
// otherwise all.
func shown[T any](filtered, all []T) []T {
	if len(filtered) == 0 {
		return all
	}
	return filtered
}

func actionsPage(opts Options, all, filtered []core.ActionEntry) page {
	counts := core.CountActions(all, opts.Now)
	return page{
		title:    "Actions & Decisions Log",
		subtitle: "Meeting Outcomes Tracker",
		stats: []stat{
			{"Total", counts.Total, colorCharcoal},
			{"Open", counts.Open, colorBlue},
			{"Done", counts.Done, colorGreen},
			{"Overdue", counts.Overdue, colorRed},
		},
		noun:   "action",
		plural: "actions",
		count:  len(shown(filtered, all)),
	}
}

func registerPage(all, filtered []core.RegisterEntry) page {
	counts := core.CountRegister(all)
	return page{
		title:    "Ideas & Issues Register",
		subtitle: "Ideas, Risks and Open Issues",
		stats: []stat{
			{"Ideas", counts.Ideas, colorBlue},
			{"Issues", counts.Issues, colorRed},
			{"Open", counts.Open, colorCharcoal},
			{"Resolved", counts.Resolved, colorGreen},
		},
		noun:   "entry",
		plural: "entries",
		count:  len(shown(filtered, all)),
	}
}

func colorOr(colors map[string]string, key string) string {
	if c, ok := colors[key]; ok {
		return c
	}
	return colorCharcoal
}

// actionBorder is the card's left border: red when overdue, else the
// status colour.
func actionBorder(e core.ActionEntry, overdue bool) string {
	if overdue {
		return colorRed
	}
	return colorOr(actionStatusColors, e.Status)
}

func dueColor(overdue bool) string {
	if overdue {
		return colorRed
	}
	return "#333"
}

func priorityColor(p string) string {
	switch p {
	case core.PriorityHigh:
		return "#B02020"
	case core.PriorityMedium:
		return "#8A6A10"
	default:
		return "#555"
	}
}

func actionRef(num int) string {
	return fmt.Sprintf("ACT-%03d", num)
}

// orDash returns s, or an em dash when s is blank.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func countLabel(n int, noun, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// longDate formats the export date as "14 March 2025".
func longDate(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2 January 2006")
}

// shortDate formats a YYYY-MM-DD calendar date as "5 Apr 2025". Other
// values are returned unchanged.
func shortDate(s string) string {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return s
	}
	return t.Format("2 Jan 2006")
}

// timestampDate formats an instant as "5 Apr 2025", or "" when unset.
func timestampDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}
