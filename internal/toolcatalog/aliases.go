package toolcatalog

import "strings"

// toolAliases maps shorthand tool ids sent by the chat automation backend to
// their canonical workspace ids.
var toolAliases = map[string]string{
	// Google Docs
	"google_docs_create": "google_docs_create_document",
	"docs_create":        "google_docs_create_document",
	"google_docs_read":   "google_docs_get_document",
	"docs_read":          "google_docs_get_document",
	"google_docs_list":   "google_docs_list_documents",
	"docs_list":          "google_docs_list_documents",
	"google_docs_append": "google_docs_append_text",
	"google_docs_update": "google_docs_update_text",
	"google_docs_delete": "google_docs_delete_document",

	// Google Sheets
	"google_sheets_create": "google_sheets_create_spreadsheet",
	"sheets_create":        "google_sheets_create_spreadsheet",
	"google_sheets_read":   "google_sheets_get_values",
	"sheets_read":          "google_sheets_get_values",
	"google_sheets_write":  "google_sheets_update_values",
	"sheets_write":         "google_sheets_update_values",
	"google_sheets_list":   "google_sheets_list_spreadsheets",
	"sheets_list":          "google_sheets_list_spreadsheets",

	// Google Calendar
	"google_calendar_create": "google_calendar_create_event",
	"calendar_create":        "google_calendar_create_event",
	"google_calendar_list":   "google_calendar_list_events",
	"calendar_list":          "google_calendar_list_events",
	"google_calendar_read":   "google_calendar_get_event",
	"calendar_read":          "google_calendar_get_event",

	// Gmail
	"gmail_read":  "gmail_get_message",
	"gmail_send":  "gmail_send_message",
	"gmail_draft": "gmail_create_draft",
	"gmail_list":  "gmail_list_messages",
}

// ResolveAlias returns the canonical id for a shorthand tool id. The exact
// spelling is tried first, then the lowercased form. Unknown ids are returned
// unchanged.
func ResolveAlias(id string) string {
	if canonical, ok := toolAliases[id]; ok {
		return canonical
	}
	if canonical, ok := toolAliases[strings.ToLower(id)]; ok {
		return canonical
	}
	return id
}

// Aliases returns a copy of the alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(toolAliases))
	for k, v := range toolAliases {
		out[k] = v
	}
	return out
}
