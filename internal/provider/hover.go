package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractContents pulls display text out of a raw content response.
//
// Servers answer content queries in several historical shapes: a bare
// string, a MarkupContent object, an array of MarkedStrings, a plain-goal
// object with a goals array, or any of those under a "contents" key. The
// goal shapes win over hover shapes when both are present.
func ExtractContents(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	root := gjson.ParseBytes(raw)

	if root.Type == gjson.String {
		return root.String()
	}

	if goals := root.Get("goals"); goals.IsArray() {
		return joinGoals(goals)
	}
	if rendered := root.Get("rendered"); rendered.Type == gjson.String {
		return rendered.String()
	}

	if contents := root.Get("contents"); contents.Exists() {
		return extractValue(contents)
	}

	return extractValue(root)
}

func joinGoals(goals gjson.Result) string {
	var parts []string
	goals.ForEach(func(_, goal gjson.Result) bool {
		if text := extractValue(goal); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	return strings.Join(parts, "\n\n")
}

// extractValue handles string | {value} | [mixed] nodes.
func extractValue(node gjson.Result) string {
	switch {
	case node.Type == gjson.String:
		return node.String()
	case node.IsArray():
		var parts []string
		node.ForEach(func(_, item gjson.Result) bool {
			if text := extractValue(item); text != "" {
				parts = append(parts, text)
			}
			return true
		})
		return strings.Join(parts, "\n\n")
	case node.IsObject():
		if value := node.Get("value"); value.Type == gjson.String {
			return value.String()
		}
	}
	return ""
}
