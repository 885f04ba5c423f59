package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"techdocs/pkg/logger"

	"gopkg.in/yaml.v3"
)

type tagKind uint8

const (
	tagOther tagKind = iota
	tagName
	tagObject
)

// TagInput is one caller-supplied tag: a bare name, a Tag object, or some other
// value that gets stringified. The shape is decided once, when the input is
// built or decoded.
type TagInput struct {
	kind  tagKind
	value string
	tag   Tag
}

func TagName(name string) TagInput {
	return TagInput{kind: tagName, value: name}
}

// TagObject passes t through unchanged when it has a name; a nameless object
// is treated like any other unexpected value.
func TagObject(t Tag) TagInput {
	if t.Name == "" {
		return TagInput{kind: tagOther, value: "{}"}
	}
	return TagInput{kind: tagObject, tag: t}
}

// TagValue classifies an arbitrary Go value.
func TagValue(v any) TagInput {
	switch x := v.(type) {
	case string:
		return TagName(x)
	case Tag:
		return TagObject(x)
	case *Tag:
		if x != nil {
			return TagObject(*x)
		}
	case TagInput:
		return x
	}
	return TagInput{kind: tagOther, value: fmt.Sprint(v)}
}

// Normalize returns the tag as sent to the server: always an object with just
// a name.
func (t TagInput) Normalize() Tag {
	if t.kind == tagOther {
		logger.Sugar.Warnf("Unexpected tag format: %s", t.value)
	}
	return t.normalized()
}

func (t TagInput) normalized() Tag {
	switch t.kind {
	case tagName:
		return Tag{Name: t.value}
	case tagObject:
		return t.tag
	}
	return Tag{Name: t.value}
}

func (t *TagInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty tag")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TagName(s)
		return nil
	case '{':
		var obj struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		var name string
		if json.Unmarshal(obj.Name, &name) == nil && name != "" {
			*t = TagObject(Tag{Name: name})
			return nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}
	*t = TagInput{kind: tagOther, value: compact.String()}
	return nil
}

func (t TagInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.normalized())
}

func (t *TagInput) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!str" {
			*t = TagName(node.Value)
		} else {
			*t = TagInput{kind: tagOther, value: node.Value}
		}
		return nil
	case yaml.MappingNode:
		var obj struct {
			Name string `yaml:"name"`
		}
		if err := node.Decode(&obj); err == nil && obj.Name != "" {
			*t = TagObject(Tag{Name: obj.Name})
			return nil
		}
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	*t = TagInput{kind: tagOther, value: strings.TrimSpace(string(raw))}
	return nil
}

// ServiceIDInput is a caller-supplied service reference: absent, an integer,
// or a string that should hold one.
type ServiceIDInput struct {
	raw     string
	set     bool
	invalid bool
}

func ServiceIDFromInt(id int64) ServiceIDInput {
	return ServiceIDInput{raw: strconv.FormatInt(id, 10), set: true}
}

func ServiceIDFromString(s string) ServiceIDInput {
	return ServiceIDInput{raw: s, set: true}
}

// Normalize yields nil for an absent, empty or zero reference, the parsed
// integer otherwise, and ErrInvalidServiceID for anything non-numeric.
func (s ServiceIDInput) Normalize() (*int64, error) {
	raw := strings.TrimSpace(s.raw)
	if s.invalid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidServiceID, raw)
	}
	if !s.set || raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServiceID, raw)
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}

func (s *ServiceIDInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*s = ServiceIDInput{}
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = ServiceIDFromString(v)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = ServiceIDFromString(string(data))
	default:
		*s = ServiceIDInput{raw: string(data), set: true, invalid: true}
	}
	return nil
}

func (s ServiceIDInput) MarshalJSON() ([]byte, error) {
	n, err := s.Normalize()
	if err != nil {
		return json.Marshal(s.raw)
	}
	return json.Marshal(n)
}

func (s *ServiceIDInput) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*s = ServiceIDInput{raw: node.Value, set: true, invalid: true}
		return nil
	}
	switch node.ShortTag() {
	case "!!null":
		*s = ServiceIDInput{}
	case "!!int", "!!str":
		*s = ServiceIDFromString(node.Value)
	default:
		*s = ServiceIDInput{raw: node.Value, set: true, invalid: true}
	}
	return nil
}
