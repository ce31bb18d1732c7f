package core

// mapper.go translates between the external record shape and typed entries.
//
// External records are flat maps keyed by snake_case column name. List
// fields hold []string, timestamps hold time.Time and num holds an int.
// Translation is pure and lossless for well-formed records; absent optional
// fields are default-filled (owner to OwnerUnassigned, text to "", lists to
// an empty list, timestamps to the zero time).

import (
	"strconv"
	"strings"
	"time"
)

// ExternalRecord is a record as the store sees it.
type ExternalRecord map[string]any

// ID returns the record's id column, or "" when absent.
func (r ExternalRecord) ID() string {
	return textValue(r["id"])
}

// Clone returns a shallow copy with list values copied.
func (r ExternalRecord) Clone() ExternalRecord {
	out := make(ExternalRecord, len(r))
	for k, v := range r {
		if list, ok := v.([]string); ok {
			v = append([]string{}, list...)
		}
		out[k] = v
	}
	return out
}

// ActionEntryFromExternal converts a store record to an ActionEntry.
func ActionEntryFromExternal(r ExternalRecord) ActionEntry {
	owner := textValue(r["owner"])
	if owner == "" {
		owner = OwnerUnassigned
	}
	return ActionEntry{
		ID:          textValue(r["id"]),
		Num:         intValue(r["num"]),
		Action:      textValue(r["action"]),
		Decision:    textValue(r["decision"]),
		Owner:       owner,
		Category:    textValue(r["category"]),
		Priority:    textValue(r["priority"]),
		Status:      textValue(r["status"]),
		DueDate:     textValue(r["due_date"]),
		Meeting:     textValue(r["meeting"]),
		Notes:       textValue(r["notes"]),
		LinkedRules: listValue(r["linked_rules"]),
		CreatedAt:   timeValue(r["created_at"]),
		UpdatedAt:   timeValue(r["updated_at"]),
	}
}

// External converts the entry to its store shape.
func (e ActionEntry) External() ExternalRecord {
	return ExternalRecord{
		"id":           e.ID,
		"num":          e.Num,
		"action":       e.Action,
		"decision":     e.Decision,
		"owner":        e.Owner,
		"category":     e.Category,
		"priority":     e.Priority,
		"status":       e.Status,
		"due_date":     e.DueDate,
		"meeting":      e.Meeting,
		"notes":        e.Notes,
		"linked_rules": nonNilList(e.LinkedRules),
		"created_at":   e.CreatedAt,
		"updated_at":   e.UpdatedAt,
	}
}

// RegisterEntryFromExternal converts a store record to a RegisterEntry.
func RegisterEntryFromExternal(r ExternalRecord) RegisterEntry {
	return RegisterEntry{
		ID:          textValue(r["id"]),
		Type:        textValue(r["type"]),
		Title:       textValue(r["title"]),
		Description: textValue(r["description"]),
		Category:    textValue(r["category"]),
		Status:      textValue(r["status"]),
		Priority:    textValue(r["priority"]),
		Tags:        listValue(r["tags"]),
		CreatedAt:   timeValue(r["created_at"]),
		UpdatedAt:   timeValue(r["updated_at"]),
	}
}

// External converts the entry to its store shape.
func (e RegisterEntry) External() ExternalRecord {
	return ExternalRecord{
		"id":          e.ID,
		"type":        e.Type,
		"title":       e.Title,
		"description": e.Description,
		"category":    e.Category,
		"status":      e.Status,
		"priority":    e.Priority,
		"tags":        nonNilList(e.Tags),
		"created_at":  e.CreatedAt,
		"updated_at":  e.UpdatedAt,
	}
}

func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case []byte:
		return string(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.DateOnly)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func intValue(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func listValue(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func timeValue(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return time.Time{}
		}
		return *x
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

func nonNilList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
