package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// blockSnippetRunes caps the title derived from a text block.
const blockSnippetRunes = 50

// BlockTitle derives a display title from a block's type and content.
// It never fails; unknown shapes fall back to "<type> block".
func BlockTitle(blockType string, content map[string]any) string {
	var title string
	switch blockType {
	case "text", "heading", "quote", "callout":
		title = snippet(stripMarkup(stringField(content, "text")), blockSnippetRunes)
	case "task", "table", "timeline", "section":
		title = stringField(content, "title")
	case "file", "image", "pdf", "video":
		title = stringField(content, "filename")
	case "link", "embed", "bookmark":
		title = stringField(content, "url")
	}
	if strings.TrimSpace(title) == "" {
		if blockType == "" {
			blockType = "untitled"
		}
		return fmt.Sprintf("%s block", blockType)
	}
	return strings.TrimSpace(title)
}

// TableRowTitle derives a display title from a row: the primary field's
// value, else the first non-empty string field by ordinal, else "Table row".
func TableRowTitle(data map[string]any, fields []types.TableField) string {
	ordered := make([]types.TableField, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	for _, f := range ordered {
		if f.IsPrimary {
			if s := displayValue(data[f.ID]); s != "" {
				return s
			}
			break
		}
	}
	for _, f := range ordered {
		if s, ok := data[f.ID].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return "Table row"
}

func stringField(content map[string]any, key string) string {
	s, _ := content[key].(string)
	return s
}

// displayValue renders a primary field value; numbers and booleans count.
func displayValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64, bool, int, int64:
		return fmt.Sprint(x)
	}
	return ""
}

// stripMarkup drops anything between angle brackets and collapses whitespace.
func stripMarkup(s string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			sb.WriteByte(' ')
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
