package core

import (
	"testing"
	"time"
)

func TestIsOverdue(t *testing.T) {
	// Late evening in a zone east of UTC still counts as the local day.
	now := time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("NZDT", 13*3600))

	tests := []struct {
		name   string
		due    string
		status string
		want   bool
	}{
		{"yesterday", "2025-03-13", StatusNotStarted, true},
		{"today", "2025-03-14", StatusInProgress, false},
		{"tomorrow", "2025-03-15", StatusBlocked, false},
		{"done is never overdue", "2020-01-01", StatusDone, false},
		{"deferred is never overdue", "2020-01-01", StatusDeferred, false},
		{"blocked can be overdue", "2020-01-01", StatusBlocked, true},
		{"no due date", "", StatusNotStarted, false},
		{"unparseable", "soon", StatusNotStarted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.due, tt.status, now); got != tt.want {
				t.Errorf("IsOverdue(%q, %q) = %v, want %v", tt.due, tt.status, got, tt.want)
			}
		})
	}
}

func TestActionFilter(t *testing.T) {
	e := ActionEntry{
		Action:   "Renew insurance",
		Decision: "Go with broker",
		Meeting:  "Ops sync",
		Owner:    "Alex Chen",
		Category: "Operations",
		Status:   StatusInProgress,
	}

	if !(ActionFilter{}).IsZero() {
		t.Error("empty filter is not zero")
	}
	if !(ActionFilter{Status: "All", Owner: "All", Category: "All", Search: "  "}).IsZero() {
		t.Error(`"All" filter is not zero`)
	}

	tests := []struct {
		name   string
		filter ActionFilter
		want   bool
	}{
		{"search is case insensitive", ActionFilter{Search: "BROKER"}, true},
		{"search covers meeting", ActionFilter{Search: "ops"}, true},
		{"search miss", ActionFilter{Search: "payroll"}, false},
		{"owner and status", ActionFilter{Owner: "Alex Chen", Status: StatusInProgress}, true},
		{"other owner", ActionFilter{Owner: "Steve Braddock"}, false},
		{"other category", ActionFilter{Category: "Financial"}, false},
	}
	for _, tt := range tests {
		if got := tt.filter.Match(e); got != tt.want {
			t.Errorf("%s: Match = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRegisterFilter(t *testing.T) {
	e := RegisterEntry{Type: TypeIssue, Title: "Slow onboarding", Description: "Users drop at step 3", Status: StatusOpen, Category: "Product"}

	if !(RegisterFilter{Type: "All"}).IsZero() {
		t.Error(`"All" filter is not zero`)
	}

	tests := []struct {
		name   string
		filter RegisterFilter
		want   bool
	}{
		{"search covers description", RegisterFilter{Search: "STEP"}, true},
		{"type and category", RegisterFilter{Type: TypeIssue, Category: "Product"}, true},
		{"other type", RegisterFilter{Type: TypeIdea}, false},
		{"other status", RegisterFilter{Status: StatusResolved}, false},
	}
	for _, tt := range tests {
		if got := tt.filter.Match(e); got != tt.want {
			t.Errorf("%s: Match = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCountRegister(t *testing.T) {
	got := CountRegister([]RegisterEntry{
		{Type: TypeIdea, Status: StatusOpen},
		{Type: TypeIdea, Status: StatusParked},
		{Type: TypeIssue, Status: StatusResolved},
		{Type: TypeIssue, Status: StatusInProgress},
	})
	want := RegisterCounts{Total: 4, Ideas: 2, Issues: 2, Open: 1, Resolved: 1}
	if got != want {
		t.Errorf("CountRegister = %+v, want %+v", got, want)
	}
}
