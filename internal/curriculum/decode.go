package curriculum

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidModule is returned when a document does not have the
// topics → sub_topics → instructional_blocks shape.
var ErrInvalidModule = errors.New("invalid curriculum module")

// moduleSchema only constrains structure. Scalar fields are left open because
// malformed metadata is treated as absent rather than rejected.
const moduleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "topics": { "type": ["array", "null"], "items": { "$ref": "#/definitions/topic" } }
  },
  "definitions": {
    "nodes": { "type": ["array", "null"], "items": { "type": "object" } },
    "topic": {
      "type": "object",
      "properties": {
        "sub_topics": { "type": ["array", "null"], "items": { "$ref": "#/definitions/subtopic" } },
        "subtopics": { "type": ["array", "null"], "items": { "$ref": "#/definitions/subtopic" } }
      }
    },
    "subtopic": {
      "type": "object",
      "properties": {
        "instructional_blocks": { "$ref": "#/definitions/nodes" }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(moduleSchema))
})

// Validate checks a JSON document against the module schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling module schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModule, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidModule, strings.Join(msgs, "; "))
	}
	return nil
}

// ParseJSON validates and decodes a JSON module document.
func ParseJSON(data []byte) (*Module, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModule, err)
	}
	return &m, nil
}

// ParseYAML decodes a YAML module document by converting it to JSON first,
// so both formats go through the same validation and field aliasing.
// Numbers keep their source text, so an unquoted 4.10 stays "4.10".
func ParseYAML(data []byte) (*Module, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModule, err)
	}
	if doc.Kind == 0 {
		return &Module{}, nil
	}

	var buf bytes.Buffer
	if err := writeYAMLAsJSON(&buf, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModule, err)
	}
	if isNull(buf.Bytes()) {
		return &Module{}, nil
	}
	return ParseJSON(buf.Bytes())
}

func writeYAMLAsJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLAsJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeYAMLAsJSON(buf, n.Alias)
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLAsJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(n.Content[i].Value)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLAsJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.ScalarNode:
		return writeYAMLScalar(buf, n)
	}
	return fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func writeYAMLScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
		return nil
	case "!!int", "!!float":
		// Forms JSON cannot carry (0x1F, 1_000, .inf) fall back to text.
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
	}
	s, err := json.Marshal(n.Value)
	if err != nil {
		return err
	}
	buf.Write(s)
	return nil
}

// Parse picks the decoder from the file extension.
func Parse(name string, data []byte) (*Module, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported module file type: %s", name)
	}
}
