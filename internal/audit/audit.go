// Package audit contains formatting helpers for audit events.
package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// FormatEvent renders an event as one line: the name followed by key=value
// pairs in key order. Values containing spaces or quotes are quoted.
func FormatEvent(event string, details map[string]interface{}) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(event)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(k)
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(value(details[k]))
	}
	return buf.String()
}

func value(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
