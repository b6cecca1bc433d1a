package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tpgen-hq/tpgen/pkg/plan"
)

// SyntaxError is returned when the document decoder rejects the input.
type SyntaxError struct {
	Line    int // 1-based, 0 when the decoder did not report one
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ErrEmptyDocument is returned by Decode for input without any content.
var ErrEmptyDocument = errors.New("document is empty")

var yamlLinePattern = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// Positions maps dotted key paths to the 1-based line that defines them.
type Positions map[string]int

// Decode parses a full document with the YAML decoder, keeping key order
// and nesting. Positions of every mapping key are recorded as well.
func Decode(text string) (plan.Value, Positions, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return plan.Value{}, nil, toSyntaxError(err)
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return plan.Value{}, nil, ErrEmptyDocument
	}

	v, err := plan.FromNode(&node)
	if err != nil {
		return plan.Value{}, nil, &SyntaxError{Message: err.Error()}
	}

	pos := make(Positions)
	collectPositions(node.Content[0], "", pos, 0)
	return v, pos, nil
}

func collectPositions(n *yaml.Node, prefix string, pos Positions, depth int) {
	if n == nil || depth > 64 {
		return
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			path := key.Value
			if prefix != "" {
				path = prefix + "." + key.Value
			}
			if _, seen := pos[path]; !seen {
				pos[path] = key.Line
			}
			collectPositions(n.Content[i+1], path, pos, depth+1)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			path := strconv.Itoa(i)
			if prefix != "" {
				path = prefix + "." + path
			}
			if _, seen := pos[path]; !seen {
				pos[path] = c.Line
			}
			collectPositions(c, path, pos, depth+1)
		}
	}
}

func toSyntaxError(err error) *SyntaxError {
	var te *yaml.TypeError
	if errors.As(err, &te) {
		return &SyntaxError{Message: strings.Join(te.Errors, "; ")}
	}
	msg := err.Error()
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &SyntaxError{Line: line, Message: m[2]}
	}
	return &SyntaxError{Message: strings.TrimPrefix(msg, "yaml: ")}
}
