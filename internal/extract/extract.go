// Package extract selects fragments of a parsed document by class pattern or
// by text content.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/glabrego/soupdeck/internal/document"
)

type MatchMode int

const (
	// CSSClass treats the pattern as a regular expression searched in each class name.
	CSSClass MatchMode = iota
	// TextContent matches nodes whose text contains the pattern literally.
	TextContent
)

func (m MatchMode) String() string {
	if m == TextContent {
		return "text"
	}
	return "css"
}

// Separator is placed between matched fragments.
const Separator = "<br>\n"

// Structural wrappers never count as matches; their matched content is
// reported through the descendants instead.
var excludedTags = map[string]bool{
	"script":   true,
	"meta":     true,
	"head":     true,
	"noscript": true,
	"svg":      true,
	"html":     true,
	"body":     true,
	"div":      true,
	"aside":    true,
	"main":     true,
}

var errNoDocument = errors.New("no document loaded")

func Excluded(tag string) bool {
	return excludedTags[strings.ToLower(tag)]
}

type Extractor struct {
	patterns *cache.Cache
}

func New() *Extractor {
	return &Extractor{patterns: cache.New(10*time.Minute, 20*time.Minute)}
}

var std = New()

// Extract runs Evaluate with the shared Extractor and turns any failure into
// the returned text.
func Extract(doc *document.Document, pattern string, mode MatchMode) string {
	return std.Extract(doc, pattern, mode)
}

func Evaluate(doc *document.Document, pattern string, mode MatchMode) (string, error) {
	return std.Evaluate(doc, pattern, mode)
}

func (e *Extractor) Extract(doc *document.Document, pattern string, mode MatchMode) string {
	out, err := e.Evaluate(doc, pattern, mode)
	if err != nil {
		return err.Error()
	}
	return out
}

// Evaluate returns the whole document pretty-printed when pattern is empty.
// Otherwise it joins the distinct serializations of every matching node, in
// document order, with Separator.
func (e *Extractor) Evaluate(doc *document.Document, pattern string, mode MatchMode) (string, error) {
	if doc == nil {
		return "", errNoDocument
	}
	if pattern == "" {
		return doc.PrettyPrint(), nil
	}
	parts, err := e.matches(doc, pattern, mode)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, Separator), nil
}

func (e *Extractor) matches(doc *document.Document, pattern string, mode MatchMode) (parts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filter evaluation failed: %v", r)
		}
	}()

	match, err := e.matcher(pattern, mode)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for n := range doc.FindAll(func(n *document.Node) bool {
		return !excludedTags[n.Tag()] && match(n)
	}) {
		s := n.Serialize()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		parts = append(parts, s)
	}
	return parts, nil
}

func (e *Extractor) matcher(pattern string, mode MatchMode) (func(*document.Node) bool, error) {
	switch mode {
	case TextContent:
		return func(n *document.Node) bool {
			return strings.Contains(n.Text(), pattern)
		}, nil
	case CSSClass:
		re, err := e.compile(pattern)
		if err != nil {
			return nil, err
		}
		return func(n *document.Node) bool {
			return n.HasClass(re.MatchString)
		}, nil
	default:
		return nil, fmt.Errorf("unknown match mode %d", mode)
	}
}

func (e *Extractor) compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := e.patterns.Get(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid class pattern: %w", err)
	}
	e.patterns.Set(pattern, re, cache.DefaultExpiration)
	return re, nil
}
