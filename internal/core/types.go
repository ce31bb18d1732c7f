package core

import "time"

// Collection keys. These are also the external table names.
const (
	ActionsKey  = "action_entries"
	RegisterKey = "register_entries"
)

// OwnerUnassigned is the owner given to entries that name nobody.
const OwnerUnassigned = "TBD / Unassigned"

// Action statuses.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
	StatusBlocked    = "Blocked"
	StatusDeferred   = "Deferred"
)

// Register statuses. In Progress is shared with actions.
const (
	StatusOpen     = "Open"
	StatusResolved = "Resolved"
	StatusParked   = "Parked"
)

// Priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Register entry types.
const (
	TypeIdea  = "Idea"
	TypeIssue = "Issue"
)

// CategoryConstitutionRule marks governance rules other actions may link to.
const CategoryConstitutionRule = "Constitution Rule"

var (
	ActionStatuses   = []string{StatusNotStarted, StatusInProgress, StatusDone, StatusBlocked, StatusDeferred}
	RegisterStatuses = []string{StatusOpen, StatusInProgress, StatusResolved, StatusParked}
	Priorities       = []string{PriorityHigh, PriorityMedium, PriorityLow}
	RegisterTypes    = []string{TypeIdea, TypeIssue}

	ActionCategories = []string{
		"Strategy", "Product", "Legal/Regulatory", "Marketing", "Financial",
		"Operations", "Technology", CategoryConstitutionRule, "Other",
	}
	RegisterCategories = []string{
		"Strategy", "Product", "Legal/Regulatory", "Marketing", "Financial",
		"Operations", "Technology", "Other",
	}
)

// DefaultOwners is used when no owner list is configured.
var DefaultOwners = []string{OwnerUnassigned}

// ActionEntry is a tracked action or decision.
//
// DueDate is a calendar date in YYYY-MM-DD form or empty. A zero CreatedAt or
// UpdatedAt means the value was never set.
type ActionEntry struct {
	ID          string    `json:"id"`
	Num         int       `json:"num"`
	Action      string    `json:"action"`
	Decision    string    `json:"decision"`
	Owner       string    `json:"owner"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	DueDate     string    `json:"dueDate"`
	Meeting     string    `json:"meeting"`
	Notes       string    `json:"notes"`
	LinkedRules []string  `json:"linkedRules"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// RegisterEntry is a tracked idea or issue.
type RegisterEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// ImportMode selects how an import batch is reconciled with the store.
type ImportMode string

const (
	// ImportReplace deletes every existing record, then inserts the batch.
	ImportReplace ImportMode = "replace"
	// ImportMerge upserts the batch by id and leaves other records alone.
	ImportMerge ImportMode = "merge"
)

// ParseImportMode parses a mode name. An empty string selects merge.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ImportReplace:
		return ImportReplace, nil
	case ImportMerge, "":
		return ImportMerge, nil
	}
	return "", &ValidationError{Field: "mode", Value: s, Message: "invalid import mode (use replace or merge)"}
}
