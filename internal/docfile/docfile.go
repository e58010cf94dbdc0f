// Package docfile reads and writes flat block documents as JSON or YAML.
package docfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// File is the on-disk shape of a document. A bare list of blocks is also
// accepted on read.
type File struct {
	Title  string          `json:"title,omitempty" yaml:"title,omitempty"`
	Blocks []outline.Block `json:"blocks" yaml:"blocks"`
}

// NewKey returns a fresh block key.
func NewKey() outline.Key {
	return uuid.NewString()
}

// FormatForPath picks the encoding from the file extension. Anything that
// is not .yaml/.yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads the document at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read decodes a document from r.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Decode(data)
}

// Decode parses JSON or YAML. Block types are normalized, and blocks
// without a key get a generated one.
func Decode(data []byte) (*File, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &File{}, nil
	}

	var f File
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &f.Blocks); err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}
	case '{':
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&f.Blocks); err != nil {
				return nil, fmt.Errorf("parsing document: %w", err)
			}
		} else if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing document: %w", err)
		}
	}

	for i := range f.Blocks {
		b := &f.Blocks[i]
		t, err := outline.ParseBlockType(string(b.Type))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		b.Type = t
		if strings.TrimSpace(b.Key) == "" {
			b.Key = NewKey()
		}
	}
	return &f, nil
}

// Document builds the core document snapshot from the file.
func (f *File) Document(opts ...outline.Option) (*outline.Document, error) {
	return outline.NewDocument(f.Blocks, opts...)
}

// Encode serializes the file in the given format.
func (f *File) Encode(format Format) ([]byte, error) {
	if f.Blocks == nil {
		f.Blocks = []outline.Block{}
	}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("marshaling document: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling document: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Save writes the file to path, replacing it atomically.
func (f *File) Save(path string) error {
	data, err := f.Encode(FormatForPath(path))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
