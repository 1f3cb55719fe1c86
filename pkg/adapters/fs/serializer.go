package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/notepad/pkg/core"
)

// Serializer defines how to read and write the collection file in a specific format.
type Serializer interface {
	// Parse reads a collection from r. Empty input is an empty collection.
	Parse(r io.Reader, namespace string) (core.Collection, error)
	// Serialize converts the collection to bytes.
	Serialize(c core.Collection, namespace string) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(),
		".yaml": NewYAMLSerializer(),
		".yml":  NewYAMLSerializer(),
	}
}

// record is the persisted form of a core.Record. Text and timestamp are kept
// as separate fields, so text may contain the legacy delimiter.
type record struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// UnmarshalJSON accepts both the structured form and a bare legacy
// "<text>|<timestamp>" string.
func (r *record) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*r = fromCore(core.Decode(legacy))
		return nil
	}

	type plain record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = record(p)
	return nil
}

// UnmarshalYAML accepts both the structured form and a bare legacy string.
func (r *record) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*r = fromCore(core.Decode(value.Value))
		return nil
	}

	type plain record
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = record(p)
	return nil
}

func fromCore(rec core.Record) record {
	return record{ID: rec.ID, Text: rec.Text, Timestamp: rec.Timestamp}
}

func (r record) toCore() core.Record {
	return core.Record{ID: r.ID, Text: r.Text, Timestamp: r.Timestamp}
}

// document is the on-disk layout: one namespace key mapping to the set of notes.
type document struct {
	Namespace string   `json:"namespace" yaml:"namespace"`
	Revision  uint64   `json:"revision" yaml:"revision"`
	Notes     []record `json:"notes" yaml:"notes"`
}

func newDocument(c core.Collection, namespace string) document {
	doc := document{
		Namespace: namespace,
		Revision:  c.Revision(),
		Notes:     make([]record, 0, c.Len()),
	}
	for _, rec := range c.Records() {
		doc.Notes = append(doc.Notes, fromCore(rec))
	}
	return doc
}

func (d document) collection(namespace string) (core.Collection, error) {
	if d.Namespace != "" && d.Namespace != namespace {
		return core.Collection{}, fmt.Errorf("file holds namespace %q, want %q", d.Namespace, namespace)
	}
	records := make([]core.Record, 0, len(d.Notes))
	for _, r := range d.Notes {
		records = append(records, r.toCore())
	}
	return core.NewCollection(d.Revision, records...), nil
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON files.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Parse(r io.Reader, namespace string) (core.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Collection{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.NewCollection(0), nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Collection{}, fmt.Errorf("invalid json: %w", err)
	}
	return doc.collection(namespace)
}

func (s *JSONSerializer) Serialize(c core.Collection, namespace string) ([]byte, error) {
	data, err := json.MarshalIndent(newDocument(c, namespace), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML files.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Parse(r io.Reader, namespace string) (core.Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Collection{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.NewCollection(0), nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return core.Collection{}, fmt.Errorf("invalid yaml: %w", err)
	}
	return doc.collection(namespace)
}

func (s *YAMLSerializer) Serialize(c core.Collection, namespace string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(newDocument(c, namespace)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
