package core

func init() {
	Register(actionsDefinition())
	Register(registerDefinition())
}

func actionsDefinition() CollectionDefinition {
	return CollectionDefinition{
		Info: CollectionInfo{
			Key:         ActionsKey,
			Label:       "Actions & Decisions",
			ExportLabel: "Actions_Backup",
			ReportLabel: "Actions_Log",
		},
		PrimaryField: "action",
		Normalize: func(r ExternalRecord) ExternalRecord {
			return ActionEntryFromExternal(r).External()
		},
		FieldSpecs: []FieldSpec{
			{Name: "id", Column: "id", Type: FieldText},
			{Name: "num", Column: "num", Type: FieldInt, Aliases: []string{"ref", "#"}},
			{Name: "action", Column: "action", Type: FieldText, Required: true},
			{Name: "decision", Column: "decision", Type: FieldText},
			{Name: "owner", Column: "owner", Type: FieldText},
			{Name: "category", Column: "category", Type: FieldEnum, EnumValues: ActionCategories},
			{Name: "priority", Column: "priority", Type: FieldEnum, EnumValues: Priorities},
			{Name: "status", Column: "status", Type: FieldEnum, EnumValues: ActionStatuses},
			{Name: "dueDate", Column: "due_date", Type: FieldDate, Aliases: []string{"due date", "due"}},
			{Name: "meeting", Column: "meeting", Type: FieldText, Aliases: []string{"meeting / source", "meeting/source", "source"}},
			{Name: "notes", Column: "notes", Type: FieldText},
			{Name: "linkedRules", Column: "linked_rules", Type: FieldList, Aliases: []string{"linked constitution rules", "linked rules"}},
			{Name: "createdAt", Column: "created_at", Type: FieldTimestamp, Aliases: []string{"created"}},
			{Name: "updatedAt", Column: "updated_at", Type: FieldTimestamp, Aliases: []string{"updated"}},
		},
	}
}

func registerDefinition() CollectionDefinition {
	return CollectionDefinition{
		Info: CollectionInfo{
			Key:         RegisterKey,
			Label:       "Ideas & Issues",
			ExportLabel: "Register_Backup",
			ReportLabel: "Ideas_Issues_Register",
		},
		PrimaryField: "title",
		Normalize: func(r ExternalRecord) ExternalRecord {
			e := RegisterEntryFromExternal(r)
			e.Tags = CleanList(e.Tags)
			return e.External()
		},
		FieldSpecs: []FieldSpec{
			{Name: "id", Column: "id", Type: FieldText},
			{Name: "type", Column: "type", Type: FieldEnum, EnumValues: RegisterTypes},
			{Name: "title", Column: "title", Type: FieldText, Required: true},
			{Name: "description", Column: "description", Type: FieldText},
			{Name: "category", Column: "category", Type: FieldEnum, EnumValues: RegisterCategories},
			{Name: "status", Column: "status", Type: FieldEnum, EnumValues: RegisterStatuses},
			{Name: "priority", Column: "priority", Type: FieldEnum, EnumValues: Priorities},
			{Name: "tags", Column: "tags", Type: FieldList},
			{Name: "createdAt", Column: "created_at", Type: FieldTimestamp, Aliases: []string{"created"}},
			{Name: "updatedAt", Column: "updated_at", Type: FieldTimestamp, Aliases: []string{"updated"}},
		},
	}
}
