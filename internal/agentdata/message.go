package agentdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// messageFields lists where chat webhooks put the reply text, in priority
// order.
var messageFields = []accessor{
	at("output"),
	at("message"),
	at("response"),
	at("text"),
	at("data", "output"),
	at("data", "message"),
	at("ai_response"),
	at("aiResponse"),
	at("content"),
}

// ExtractMessageText returns the reply text of a chat webhook payload, or
// fallback when none of the known fields holds non-blank text.
func ExtractMessageText(payload any, fallback string) string {
	for _, get := range messageFields {
		raw, ok := get(payload)
		if !ok {
			continue
		}
		if text := DisplayString(raw); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return fallback
}

// DisplayString renders any decoded JSON value as text for the chat view.
// Objects and arrays become indented JSON.
func DisplayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case time.Time:
		return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	case fmt.Stringer:
		return t.String()
	}
	return prettyJSON(v)
}

func prettyJSON(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprint(v)
		}
	}()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
