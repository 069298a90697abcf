package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/layout-v1.schema.json
var layoutSchemaJSON []byte

const layoutSchemaURL = "https://manoonchai.local/schema/layout-v1.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ErrInvalidFile is returned when a layout file fails schema validation.
var ErrInvalidFile = errors.New("layout: invalid layout file")

// File is the on-disk form of a layout. It is read and written as TOML,
// JSON or YAML depending on the file extension.
type File struct {
	Name        string     `toml:"name" json:"name" yaml:"name"`
	Description string     `toml:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Rows        [][]string `toml:"rows" json:"rows" yaml:"rows"`
	Locked      [][]bool   `toml:"locked,omitempty" json:"locked,omitempty" yaml:"locked,omitempty"`
}

func layoutSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(layoutSchemaURL, bytes.NewReader(layoutSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add layout schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(layoutSchemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks the file against the layout schema and the matrix
// geometry.
func (f *File) Validate() error {
	schema, err := layoutSchema()
	if err != nil {
		return err
	}

	// The schema validates generic JSON values, so round-trip through JSON.
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	m, err := f.Matrix()
	if err != nil {
		return err
	}
	return m.Validate()
}

// Matrix converts the rows to a matrix.
func (f *File) Matrix() (Matrix, error) {
	var m Matrix
	if len(f.Rows) != Rows {
		return m, fmt.Errorf("%w: got %d", ErrRowCount, len(f.Rows))
	}
	for r, row := range f.Rows {
		m[r] = make([]rune, len(row))
		for c, s := range row {
			if utf8.RuneCountInString(s) != 1 {
				return Matrix{}, fmt.Errorf("%w: key %s must be one character, got %q",
					ErrInvalidFile, Position{Row: r, Column: c}, s)
			}
			ch, _ := utf8.DecodeRuneInString(s)
			m[r][c] = ch
		}
	}
	return m, nil
}

// Mask converts the locked rows to a mask.
func (f *File) Mask() Mask {
	var k Mask
	for r := 0; r < len(f.Locked) && r < Rows; r++ {
		k[r] = append([]bool(nil), f.Locked[r]...)
	}
	return k
}

// Layout builds a layout from the file.
func (f *File) Layout() (*Layout, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m, err := f.Matrix()
	if err != nil {
		return nil, err
	}
	return New(f.Name, m, f.Mask())
}

// FileFromLayout captures a layout in its on-disk form.
func FileFromLayout(l *Layout) *File {
	m := l.Matrix()
	f := &File{Name: l.Name(), Rows: make([][]string, Rows)}
	for r, row := range m {
		f.Rows[r] = make([]string, len(row))
		for c, ch := range row {
			f.Rows[r][c] = string(ch)
		}
	}

	locked := l.Locked()
	hasLock := false
	for _, row := range locked {
		for _, v := range row {
			hasLock = hasLock || v
		}
	}
	if hasLock {
		f.Locked = make([][]bool, Rows)
		for r := range locked {
			f.Locked[r] = append([]bool{}, locked[r]...)
		}
	}
	return f
}

// ReadFile reads and validates a layout file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}

	f := &File{}
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), f); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// WriteFile writes a layout file, choosing the format from the extension.
func WriteFile(path string, f *File) error {
	var buf bytes.Buffer
	switch filepath.Ext(path) {
	case ".json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	default:
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encode TOML: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create layout directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write layout file: %w", err)
	}
	return nil
}
