package toolcatalog

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeGoogleTools(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty string", "", []string{}},
		{"blank string", "   ", []string{}},
		{"bool", true, []string{}},
		{"number", 42.0, []string{}},
		{
			"array",
			[]any{"google_calendar_create_event", "gmail_send_message"},
			[]string{"google_calendar_create_event", "gmail_send_message"},
		},
		{
			"string slice",
			[]string{"gmail_send"},
			[]string{"gmail_send_message"},
		},
		{
			"json array string",
			`["google_calendar_get_event", "google_calendar_create_event"]`,
			[]string{"google_calendar_get_event", "google_calendar_create_event"},
		},
		{
			"quoted list without brackets",
			`"google_calendar_list_events", "google_calendar_create_event"`,
			[]string{"google_calendar_list_events", "google_calendar_create_event"},
		},
		{
			"comma and whitespace separated",
			"gmail_send_message,  google_docs_get_document\nweb_search",
			[]string{"gmail_send_message", "google_docs_get_document", "web_search"},
		},
		{
			"malformed json falls back to split",
			`gmail_send_message, "google_docs_create`,
			[]string{"gmail_send_message", "google_docs_create_document"},
		},
		{
			"non-string entries dropped",
			[]any{1.0, nil, true, map[string]any{"id": "x"}, "gmail_list"},
			[]string{"gmail_list_messages"},
		},
		{
			"json array of numbers yields nothing",
			"[1, 2, 3]",
			[]string{},
		},
		{
			"quotes backticks and backslashes stripped",
			[]any{`"gmail_send_message"`, "`web_search`", `\"google_docs_get_document\"`, `'  '`},
			[]string{"gmail_send_message", "web_search", "google_docs_get_document"},
		},
		{
			"legacy prefixes rewritten",
			[]any{"calendar_update_event", "sheets_append_values", "docs_update_text"},
			[]string{"google_calendar_update_event", "google_sheets_append_values", "google_docs_update_text"},
		},
		{
			"prefix rewrite then alias",
			[]any{"calendar_create"},
			[]string{"google_calendar_create_event"},
		},
		{
			"case-insensitive alias",
			[]any{"GMAIL_SEND", "Docs_Create"},
			[]string{"gmail_send_message", "google_docs_create_document"},
		},
		{
			"dedup after resolution keeps first-seen order",
			[]any{"gmail_send", "web_search", "gmail_send_message", "web_search"},
			[]string{"gmail_send_message", "web_search"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGoogleTools(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeGoogleTools(%#v) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestNormalizeGoogleToolsIdempotent(t *testing.T) {
	inputs := []any{
		`"calendar_create", "\"gmail_send\"", docs_read`,
		[]any{"sheets_write", "`gmail_draft`", "custom_tool", "Calendar_List"},
		`["google_docs_append", "web_search", "web_search"]`,
		`\"gmail_list\", 'sheets_list'`,
	}
	for _, in := range inputs {
		once := NormalizeGoogleTools(in)
		refed := make([]any, len(once))
		for i, id := range once {
			refed[i] = id
		}
		twice := NormalizeGoogleTools(refed)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("normalizing %#v twice changed the result (-once +twice):\n%s", in, diff)
		}
	}
}

func TestNormalizeGoogleToolsOrderIndependentSet(t *testing.T) {
	tokens := []string{"gmail_send", "calendar_create", "gmail_send_message", "web_search", "calendar_create", "docs_read"}
	want := sortedSet(NormalizeGoogleTools(toAny(tokens)))

	perms := [][]string{
		{"web_search", "docs_read", "calendar_create", "gmail_send_message", "gmail_send", "calendar_create"},
		{"calendar_create", "calendar_create", "docs_read", "gmail_send", "web_search", "gmail_send_message"},
		{"gmail_send_message", "web_search", "gmail_send", "docs_read", "calendar_create", "calendar_create"},
	}
	for _, p := range perms {
		got := sortedSet(NormalizeGoogleTools(toAny(p)))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("permutation %v produced a different set (-want +got):\n%s", p, diff)
		}
	}
}

func TestNormalizeGoogleToolsAliasClosure(t *testing.T) {
	for key, target := range Aliases() {
		got := NormalizeGoogleTools([]any{key})
		if len(got) != 1 || got[0] != target {
			t.Errorf("NormalizeGoogleTools([%q]) = %v, want [%q]", key, got, target)
		}
	}
}

func TestCleanToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gmail_send", "gmail_send"},
		{`  "gmail_send"  `, "gmail_send"},
		{`\"gmail_send\"`, "gmail_send"},
		{"``web_search``", "web_search"},
		{`"'\"gmail_send\"'"`, "gmail_send"},
		{`'\'`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanToken(tt.input); got != tt.want {
			t.Errorf("cleanToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRewritePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"calendar_x", "google_calendar_x"},
		{"SHEETS_x", "google_sheets_x"},
		{"docs_x", "google_docs_x"},
		{"google_docs_x", "google_docs_x"},
		{"gmail_send", "gmail_send"},
		{"calendarx", "calendarx"},
	}
	for _, tt := range tests {
		if got := rewritePrefix(tt.input); got != tt.want {
			t.Errorf("rewritePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolveAlias(t *testing.T) {
	if got := ResolveAlias("gmail_read"); got != "gmail_get_message" {
		t.Errorf("ResolveAlias(gmail_read) = %q", got)
	}
	if got := ResolveAlias("Gmail_Read"); got != "gmail_get_message" {
		t.Errorf("ResolveAlias(Gmail_Read) = %q", got)
	}
	if got := ResolveAlias("Unknown_Tool"); got != "Unknown_Tool" {
		t.Errorf("ResolveAlias(Unknown_Tool) = %q, want input unchanged", got)
	}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func sortedSet(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
