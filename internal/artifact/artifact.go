// Package artifact reads and writes the abbreviation table consumed by the
// editor integration.
//
// The file is a single JSON object mapping triggers to arrays of
// translations, keys ascending, two-space indentation, non-ASCII and HTML
// characters written literally (U+2028 and U+2029 included), and exactly one
// trailing newline.
package artifact

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"abbrevgen/internal/fsutil"
	"abbrevgen/internal/table"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://abbrevgen.local/schema/abbreviations.schema.json"

// Artifact errors.
var (
	ErrWriteFailed = errors.New("artifact: write failed")
	ErrInvalid     = errors.New("artifact: invalid")
)

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Encode renders t in the artifact format.
func Encode(t table.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	// encoding/json writes map keys in sorted order, which is the table order.
	if err := enc.Encode(t.Map()); err != nil {
		return nil, fmt.Errorf("artifact: encode: %w", err)
	}
	return unescapeLineSeparators(buf.Bytes()), nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes that
// encoding/json emits regardless of SetEscapeHTML. Escapes are consumed in
// pairs so an escaped backslash followed by "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if rest := data[i+1:]; len(rest) >= 5 && rest[0] == 'u' {
			switch string(rest[1:5]) {
			case "2028":
				out = utf8.AppendRune(out, '\u2028')
				i += 5
				continue
			case "2029":
				out = utf8.AppendRune(out, '\u2029')
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// Validate checks encoded data against the artifact schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrInvalid, err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Decode parses artifact data back into a table.
func Decode(data []byte) (table.Table, error) {
	if err := Validate(data); err != nil {
		return table.Table{}, err
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return table.Table{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	t, err := table.New(m)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return t, nil
}

// Read loads the artifact at path.
func Read(path string) (table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, err
	}
	return Decode(data)
}

// Write encodes and validates t in memory, then replaces path atomically.
// Parent directories are created as needed. On failure the previous file,
// if any, is left as it was.
func Write(path string, t table.Table) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	if err := Validate(data); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, fsutil.PermPublicFile); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}
