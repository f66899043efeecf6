package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node is one node of an Atlassian rich-text document. A node is either a
// text leaf (Text set, no children) or a container (Content set). Modeling
// the document as an explicit tagged tree keeps text extraction total:
// every node shape reduces through the same depth-first join.
type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Content []Node `json:"content"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Content) == 0
}

// Block node types that terminate a line of text when flattened.
var blockTypes = map[string]bool{
	"paragraph":  true,
	"heading":    true,
	"blockquote": true,
	"codeBlock":  true,
	"listItem":   true,
}

// PlainText reduces the document depth-first into a single string: text
// leaves are concatenated in order and block-level containers contribute a
// trailing newline.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.appendText(&sb)
	return strings.TrimSpace(sb.String())
}

func (n *Node) appendText(sb *strings.Builder) {
	if n.Text != "" {
		sb.WriteString(n.Text)
	}
	for i := range n.Content {
		n.Content[i].appendText(sb)
	}
	if blockTypes[n.Type] {
		sb.WriteString("\n")
	}
}

// DecodeText extracts plain text from a raw description or comment body.
// The field is either absent, a JSON string (API v2), or a rich-text
// document (API v3); all three decode without the caller caring which.
func DecodeText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode plain text field: %w", err)
		}
		return s, nil
	}

	var doc Node
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode rich text document: %w", err)
	}
	return doc.PlainText(), nil
}
