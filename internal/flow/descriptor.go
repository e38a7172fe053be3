package flow

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Markers that the analysis tool writes into the head of a descriptor.
const (
	CodeCountMarker = "CodeCount"
	ReturnMarker    = "METHOD_RETURN"
)

var (
	descriptorRe = regexp.MustCompile(`(?s)^\((.+?),(.*)\)$`)
	counterRe    = regexp.MustCompile(`^CodeCount\((\d+)\)`)
	subscriptRe  = regexp.MustCompile(`(?s)<SUB>.*?</SUB>`)
)

// Descriptor is the parsed "(head,code)" label of a local flow graph node.
type Descriptor struct {
	Head string
	Code string
}

// ParseDescriptor parses a node label. Quoted labels and HTML-like labels
// (newer exports append the line number as <SUB>n</SUB>) are both accepted.
func ParseDescriptor(label string) (Descriptor, error) {
	s := normalizeLabel(label)
	m := descriptorRe.FindStringSubmatch(s)
	if m == nil {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrMalformedNodeLabel, label)
	}
	return Descriptor{Head: m[1], Code: m[2]}, nil
}

func normalizeLabel(label string) string {
	s := strings.TrimSpace(label)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		s = subscriptRe.ReplaceAllString(s[1:len(s)-1], "")
		s = html.UnescapeString(s)
	}
	return strings.TrimSpace(s)
}

// IsCounted reports whether the node is an instrumented statement.
func (d Descriptor) IsCounted() bool {
	return d.Head == CodeCountMarker
}

// IsReturn reports whether the node is the method's return point.
func (d Descriptor) IsReturn() bool {
	return d.Head == ReturnMarker
}

// CounterID extracts the id embedded in a counted statement, e.g. CodeCount(3).
func (d Descriptor) CounterID() (int, error) {
	m := counterRe.FindStringSubmatch(strings.TrimSpace(d.Code))
	if m == nil {
		return 0, fmt.Errorf("%w: no counter id in %q", ErrMalformedNodeLabel, d.Code)
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: counter id %q: %v", ErrMalformedNodeLabel, m[1], err)
	}
	return id, nil
}

// CalleeName returns the head with any qualifier removed: everything up to
// and including the last "::" or "." is dropped.
func (d Descriptor) CalleeName() string {
	return BareName(d.Head)
}

// BareName strips scope ("ns::f") and member access ("obj.f") qualifiers.
func BareName(head string) string {
	cut := 0
	if i := strings.LastIndex(head, "::"); i >= 0 {
		cut = i + 2
	}
	if i := strings.LastIndex(head, "."); i >= 0 && i+1 > cut {
		cut = i + 1
	}
	return head[cut:]
}
