// Package panelfile reads and writes the saved panel set.
//
// The file is a JSON object keyed by the panel's position:
//
//	{
//	  "0": {"url": "https://example.org", "filter": "title", "is_with_css": true, "output_option": 0},
//	  "1": {"url": "https://example.net", "filter": "", "is_with_css": false, "output_option": 2}
//	}
//
// output_option is 0 for markup, 1 for plain text and 2 for clean text.
package panelfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/glabrego/soupdeck/internal/extract"
	"github.com/glabrego/soupdeck/internal/panel"
	"github.com/glabrego/soupdeck/internal/render"
)

var (
	ErrNotFound = errors.New("panel file not found")
	ErrCorrupt  = errors.New("panel file is not a JSON object")
)

type Record struct {
	URL          string `json:"url"`
	Filter       string `json:"filter"`
	IsWithCSS    bool   `json:"is_with_css"`
	OutputOption int    `json:"output_option"`
}

// Set is the ordered list of saved panels.
type Set []Record

func FromSettings(s panel.Settings) Record {
	return Record{
		URL:          s.URL,
		Filter:       s.Filter,
		IsWithCSS:    s.Match == extract.CSSClass,
		OutputOption: int(s.Display),
	}
}

func (r Record) Settings() panel.Settings {
	match := extract.TextContent
	if r.IsWithCSS {
		match = extract.CSSClass
	}
	display, err := render.ParseDisplayMode(r.OutputOption)
	if err != nil {
		display = render.Markup
	}
	return panel.Settings{URL: r.URL, Filter: r.Filter, Match: match, Display: display}
}

// RecordError describes one saved panel that could not be restored.
type RecordError struct {
	Key      string
	Problems []string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("panel %s: %s", e.Key, strings.Join(e.Problems, "; "))
}

func Encode(set Set) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, rec := range set {
		var one bytes.Buffer
		enc := json.NewEncoder(&one)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("encode panel %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n  %q: %s", strconv.Itoa(i), bytes.TrimSpace(one.Bytes()))
	}
	if len(set) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Decode returns the valid records in key order. Records that fail
// validation are reported individually and left out of the set; only a
// document that is not a JSON object at all is an error.
func Decode(data []byte) (Set, []*RecordError, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	set := make(Set, 0, len(keys))
	var problems []*RecordError
	for _, key := range keys {
		rec, err := decodeRecord(key, raw[key])
		if err != nil {
			problems = append(problems, err)
			continue
		}
		set = append(set, rec)
	}
	return set, problems, nil
}

func decodeRecord(key string, data json.RawMessage) (Record, *RecordError) {
	if msgs := validateRecord(data); len(msgs) > 0 {
		return Record{}, &RecordError{Key: key, Problems: msgs}
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, &RecordError{Key: key, Problems: []string{err.Error()}}
	}
	return rec, nil
}

// keyLess orders decimal keys numerically, ahead of any other keys.
func keyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

func Load(path string) (Set, []*RecordError, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read panel file: %w", err)
	}
	return Decode(data)
}

// Save writes set to path through a temporary file and returns the absolute
// path written.
func Save(path string, set Set) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve panel file path: %w", err)
	}
	data, err := Encode(set)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".panels-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp panel file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write panel file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close panel file: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", fmt.Errorf("replace panel file: %w", err)
	}
	return abs, nil
}
