package feature

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// EmptyToken stands for the reserved empty word in the text format.
const EmptyToken = "<empty>"

// Table maps words to fixed-width vectors.
type Table struct {
	dim     int
	vectors map[string][]float32
}

// NewTable creates an empty table of the given width.
func NewTable(dim int) *Table {
	return &Table{dim: dim, vectors: make(map[string][]float32)}
}

// Dim returns the vector width.
func (t *Table) Dim() int { return t.dim }

// Len returns the number of words, including the empty word if present.
func (t *Table) Len() int { return len(t.vectors) }

// Set stores the vector for word.
func (t *Table) Set(word string, vec []float32) error {
	if len(vec) != t.dim {
		return fmt.Errorf("vector for %q has width %d, table width is %d", word, len(vec), t.dim)
	}
	v := make([]float32, t.dim)
	copy(v, vec)
	t.vectors[word] = v
	return nil
}

// Lookup returns the vector stored for word.
func (t *Table) Lookup(word string) ([]float32, bool) {
	v, ok := t.vectors[word]
	return v, ok
}

// Vector returns the vector for word, falling back to the empty word's
// vector, and to zeros when the table has no empty word either.
func (t *Table) Vector(word string) []float32 {
	if v, ok := t.vectors[word]; ok {
		return v
	}
	if v, ok := t.vectors[""]; ok {
		return v
	}
	return make([]float32, t.dim)
}

// Words returns the words in sorted order.
func (t *Table) Words() []string {
	words := make([]string, 0, len(t.vectors))
	for w := range t.vectors {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// ReadTable reads the word2vec text format: an optional "<count> <dim>"
// header followed by one "word v1 ... vdim" line per word.
func ReadTable(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var t *Table
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				dim, err := strconv.Atoi(fields[1])
				if err != nil || dim <= 0 {
					return nil, fmt.Errorf("line 1: invalid dimension %q", fields[1])
				}
				t = NewTable(dim)
				continue
			}
		}

		word := fields[0]
		if word == EmptyToken {
			word = ""
		}
		vec := make([]float32, 0, len(fields)-1)
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec = append(vec, float32(v))
		}
		if t == nil {
			if len(vec) == 0 {
				return nil, fmt.Errorf("line %d: word %q has no vector", lineNo, word)
			}
			t = NewTable(len(vec))
		}
		if err := t.Set(word, vec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("vector table is empty")
	}
	return t, nil
}

// WriteTable writes t in the word2vec text format with a header line.
func WriteTable(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", t.Len(), t.dim); err != nil {
		return err
	}
	for _, word := range t.Words() {
		name := word
		if name == "" {
			name = EmptyToken
		}
		bw.WriteString(name)
		for _, v := range t.vectors[word] {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
