package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseFormat normalizes a format name. "yml" is accepted as YAML.
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", configError("format", fmt.Sprintf("unsupported format %q", format), nil)
}

// JSON renders the document as indented JSON. indent <= 0 renders
// compact output.
func (d *Document) JSON(indent int) ([]byte, error) {
	if indent <= 0 {
		return json.Marshal(d)
	}
	return json.MarshalIndent(d, "", strings.Repeat(" ", indent))
}

// YAML renders the document as YAML. Key order follows the JSON
// rendering.
func (d *Document) YAML() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert document to yaml: %w", err)
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// resetStyle drops the flow and quoting styles the JSON source left on
// the node tree. The encoder re-quotes strings that would otherwise be
// read back as another type.
func resetStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		resetStyle(c)
	}
}

func render(d *Document, format string, indent int) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return d.YAML()
	}
	return d.JSON(indent)
}
