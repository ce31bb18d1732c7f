package core

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_Collections(t *testing.T) {
	if got := CollectionCount(); got != 2 {
		t.Errorf("CollectionCount() = %d, want 2", got)
	}

	all := All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d definitions, want 2", len(all))
	}
	if all[0].Info.Key != ActionsKey || all[1].Info.Key != RegisterKey {
		t.Errorf("All() keys = [%s %s], want [%s %s]", all[0].Info.Key, all[1].Info.Key, ActionsKey, RegisterKey)
	}

	if _, err := Lookup("widgets"); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Lookup(widgets) error = %v, want ErrUnknownCollection", err)
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	expectPanic(t, "registering actions twice", func() { Register(actionsDefinition()) })
}

func TestRegistry_ConflictingHeaderPanics(t *testing.T) {
	def := CollectionDefinition{
		Info: CollectionInfo{Key: "conflict_test"},
		FieldSpecs: []FieldSpec{
			{Name: "a", Column: "a", Aliases: []string{"shared"}},
			{Name: "b", Column: "b", Aliases: []string{"Shared"}},
		},
	}
	expectPanic(t, "registering a conflicting alias", func() { Register(def) })

	if _, ok := Get("conflict_test"); ok {
		t.Error("conflicting definition was registered")
	}
}

func TestResolveHeader(t *testing.T) {
	def, ok := Get(ActionsKey)
	if !ok {
		t.Fatal("actions collection not registered")
	}

	tests := []struct {
		header string
		want   string
	}{
		{"dueDate", "dueDate"},
		{"duedate", "dueDate"},
		{"due_date", "dueDate"},
		{"  Due Date ", "dueDate"},
		{"MEETING / SOURCE", "meeting"},
		{"linked_rules", "linkedRules"},
		{"linkedrules", "linkedRules"},
		{"ref", "num"},
		{"#", "num"},
		{"Created", "createdAt"},
		{"createdat", "createdAt"},
	}
	for _, tt := range tests {
		spec, ok := def.ResolveHeader(tt.header)
		if !ok {
			t.Errorf("ResolveHeader(%q) not found", tt.header)
			continue
		}
		if spec.Name != tt.want {
			t.Errorf("ResolveHeader(%q) = %q, want %q", tt.header, spec.Name, tt.want)
		}
	}

	if _, ok := def.ResolveHeader("favourite colour"); ok {
		t.Error("ResolveHeader resolved an unknown header")
	}
}

func TestDefinitionAccessors(t *testing.T) {
	def, _ := Get(RegisterKey)

	if def.PrimaryField != "title" {
		t.Errorf("PrimaryField = %q, want title", def.PrimaryField)
	}
	if !def.HasColumn("tags") {
		t.Error("HasColumn(tags) = false")
	}
	if def.HasColumn("num") {
		t.Error("HasColumn(num) = true on the register")
	}
	if got := def.Columns()[8]; got != "created_at" {
		t.Errorf("Columns()[8] = %q, want created_at", got)
	}
	if got := def.Names()[8]; got != "createdAt" {
		t.Errorf("Names()[8] = %q, want createdAt", got)
	}

	spec, ok := def.FieldByColumn("updated_at")
	if !ok || spec.Type != FieldTimestamp {
		t.Errorf("FieldByColumn(updated_at) = %+v, %v; want timestamp field", spec, ok)
	}

	spec, ok = def.Field("type")
	if !ok || !slices.Equal(spec.EnumValues, RegisterTypes) {
		t.Errorf("Field(type) enum = %v, want %v", spec.EnumValues, RegisterTypes)
	}
}
