package core

import (
	"strings"
	"time"
)

// filterAll is the filter value that matches every record.
const filterAll = "All"

// IsOverdue reports whether an action with the given due date and status is
// overdue on the day of now: the due date is strictly before today and the
// status is neither Done nor Deferred. Unparseable due dates are never
// overdue.
func IsOverdue(dueDate, status string, now time.Time) bool {
	if dueDate == "" || status == StatusDone || status == StatusDeferred {
		return false
	}
	due, err := parseCalendarDate(dueDate)
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	return due.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// parseCalendarDate parses YYYY-MM-DD as a UTC midnight.
func parseCalendarDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// Overdue reports whether the entry is overdue on the day of now.
func (e ActionEntry) Overdue(now time.Time) bool {
	return IsOverdue(e.DueDate, e.Status, now)
}

// IsOpen reports whether the action still needs work.
func (e ActionEntry) IsOpen() bool {
	return e.Status == StatusNotStarted || e.Status == StatusInProgress
}

// ActionFilter selects actions. Empty or "All" fields match anything.
type ActionFilter struct {
	Status   string
	Owner    string
	Category string
	Search   string // case-insensitive match on action, meeting or decision
}

// IsZero reports whether the filter matches every action.
func (f ActionFilter) IsZero() bool {
	return isAny(f.Status) && isAny(f.Owner) && isAny(f.Category) && strings.TrimSpace(f.Search) == ""
}

// Match reports whether the entry passes the filter.
func (f ActionFilter) Match(e ActionEntry) bool {
	if !isAny(f.Status) && e.Status != f.Status {
		return false
	}
	if !isAny(f.Owner) && e.Owner != f.Owner {
		return false
	}
	if !isAny(f.Category) && e.Category != f.Category {
		return false
	}
	return containsFold(strings.TrimSpace(f.Search), e.Action, e.Meeting, e.Decision)
}

// RegisterFilter selects register entries. Empty or "All" fields match anything.
type RegisterFilter struct {
	Type     string
	Status   string
	Category string
	Search   string // case-insensitive match on title or description
}

// IsZero reports whether the filter matches every entry.
func (f RegisterFilter) IsZero() bool {
	return isAny(f.Type) && isAny(f.Status) && isAny(f.Category) && strings.TrimSpace(f.Search) == ""
}

// Match reports whether the entry passes the filter.
func (f RegisterFilter) Match(e RegisterEntry) bool {
	if !isAny(f.Type) && e.Type != f.Type {
		return false
	}
	if !isAny(f.Status) && e.Status != f.Status {
		return false
	}
	if !isAny(f.Category) && e.Category != f.Category {
		return false
	}
	return containsFold(strings.TrimSpace(f.Search), e.Title, e.Description)
}

// ActionCounts summarizes the action log.
type ActionCounts struct {
	Total   int `json:"total"`
	Open    int `json:"open"`
	Done    int `json:"done"`
	Overdue int `json:"overdue"`
}

// CountActions computes counts over entries as of now.
func CountActions(entries []ActionEntry, now time.Time) ActionCounts {
	c := ActionCounts{Total: len(entries)}
	for _, e := range entries {
		if e.IsOpen() {
			c.Open++
		}
		if e.Status == StatusDone {
			c.Done++
		}
		if e.Overdue(now) {
			c.Overdue++
		}
	}
	return c
}

// RegisterCounts summarizes the register.
type RegisterCounts struct {
	Total    int `json:"total"`
	Ideas    int `json:"ideas"`
	Issues   int `json:"issues"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}

// CountRegister computes counts over entries.
func CountRegister(entries []RegisterEntry) RegisterCounts {
	c := RegisterCounts{Total: len(entries)}
	for _, e := range entries {
		switch e.Type {
		case TypeIdea:
			c.Ideas++
		case TypeIssue:
			c.Issues++
		}
		switch e.Status {
		case StatusOpen:
			c.Open++
		case StatusResolved:
			c.Resolved++
		}
	}
	return c
}

func isAny(v string) bool {
	return v == "" || v == filterAll
}

func containsFold(needle string, haystacks ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
