package automap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var builtinAliases []byte

// Aliases is an ordered alias table mapping field names to targets. Order
// decides which alias wins when two keys only differ by case.
type Aliases struct {
	keys   []string
	values map[string]string
}

// NewAliases returns an empty table.
func NewAliases() *Aliases {
	return &Aliases{values: make(map[string]string)}
}

// BuiltinAliases returns a copy of the bundled alias table.
func BuiltinAliases() *Aliases {
	a, err := parseAliases(builtinAliases)
	if err != nil {
		panic(fmt.Sprintf("parsing embedded aliases: %v", err))
	}
	return a
}

// LoadAliases reads a YAML mapping of field name to target, keeping the
// document order.
func LoadAliases(r io.Reader) (*Aliases, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading aliases: %w", err)
	}
	return parseAliases(data)
}

func parseAliases(data []byte) (*Aliases, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing aliases YAML: %w", err)
	}

	a := NewAliases()
	if len(doc.Content) == 0 {
		return a, nil
	}
	if err := a.UnmarshalYAML(doc.Content[0]); err != nil {
		return nil, err
	}
	return a, nil
}

// UnmarshalYAML reads a mapping node, keeping the document order.
func (a *Aliases) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("aliases must be a mapping, got YAML kind %d", node.Kind)
	}
	if a.values == nil {
		a.values = make(map[string]string, len(node.Content)/2)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		a.Set(node.Content[i].Value, node.Content[i+1].Value)
	}
	return nil
}

// MarshalYAML writes the aliases as a mapping in table order.
func (a *Aliases) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range a.Pairs() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p[1]},
		)
	}
	return node, nil
}

// MarshalJSON writes the aliases as an object in table order.
func (a *Aliases) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range a.Pairs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p[0])
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p[1])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IsZero reports whether the table is empty.
func (a *Aliases) IsZero() bool {
	return a == nil || len(a.keys) == 0
}

// Set adds or replaces an alias. A replaced alias keeps its position.
func (a *Aliases) Set(key, target string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = target
}

// Get returns the target of key.
func (a *Aliases) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of aliases.
func (a *Aliases) Len() int {
	return len(a.keys)
}

// Pairs returns key/target pairs in table order.
func (a *Aliases) Pairs() [][2]string {
	if a == nil {
		return nil
	}
	pairs := make([][2]string, len(a.keys))
	for i, k := range a.keys {
		pairs[i] = [2]string{k, a.values[k]}
	}
	return pairs
}

// Extend returns a new table with the entries of b set over a copy of a, in
// b's order. A nil b yields a plain copy.
func (a *Aliases) Extend(b *Aliases) *Aliases {
	merged := NewAliases()
	for _, p := range a.Pairs() {
		merged.Set(p[0], p[1])
	}
	for _, p := range b.Pairs() {
		merged.Set(p[0], p[1])
	}
	return merged
}
