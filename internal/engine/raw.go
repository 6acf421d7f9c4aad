package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"abbrevgen/internal/table"
)

// Kind tags the shape of a value found in the engine's table.
type Kind int

// Value shapes. Quail stores a translation as a character, a string, or a
// vector of either.
const (
	KindChar Kind = iota + 1
	KindString
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// RawValue is one translation value as dumped by the engine.
type RawValue struct {
	Kind  Kind
	Char  rune
	Str   string
	Items []RawValue
}

// UnmarshalJSON accepts a string, a character code, or an array of either.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("engine: empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue{Kind: KindString, Str: s}
	case '[':
		var items []RawValue
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, it := range items {
			if it.Kind == KindSequence {
				return errors.New("engine: nested sequence in translation")
			}
		}
		*v = RawValue{Kind: KindSequence, Items: items}
	default:
		code, err := strconv.ParseInt(string(data), 10, 32)
		if err != nil {
			return fmt.Errorf("engine: unsupported translation value %s", truncate(string(data), 40))
		}
		r := rune(code)
		if !utf8.ValidRune(r) {
			return fmt.Errorf("engine: invalid character code %d", code)
		}
		*v = RawValue{Kind: KindChar, Char: r}
	}
	return nil
}

// Strings flattens the value into candidate translation strings.
func (v RawValue) Strings() []string {
	switch v.Kind {
	case KindChar:
		return []string{string(v.Char)}
	case KindString:
		return []string{v.Str}
	case KindSequence:
		out := make([]string, 0, len(v.Items))
		for _, it := range v.Items {
			out = append(out, it.Strings()...)
		}
		return out
	default:
		return nil
	}
}

// ParseDump decodes the engine's stdout into trigger → candidates.
//
// Candidates that are a single printable ASCII character are dropped, and a
// trigger left with no candidates is dropped with them. The dump routine
// already does this; repeating it here keeps the guarantee independent of
// the routine.
func ParseDump(stdout string, previewChars int) (map[string][]string, error) {
	var decoded map[string]RawValue
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		return nil, &MalformedOutputError{Preview: truncate(stdout, previewChars), Err: err}
	}
	if decoded == nil {
		return nil, &MalformedOutputError{
			Preview: truncate(stdout, previewChars),
			Err:     errors.New("expected a JSON object"),
		}
	}

	raw := make(map[string][]string, len(decoded))
	for key, val := range decoded {
		kept := table.DropTrivial(val.Strings())
		if len(kept) == 0 {
			continue
		}
		raw[key] = kept
	}
	return raw, nil
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
