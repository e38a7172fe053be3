package graph

import "fmt"

// NodeKind distinguishes the three kinds of program graph nodes.
type NodeKind int

const (
	// KindMethod represents a method entry (call-site representative).
	KindMethod NodeKind = iota
	// KindMethodReturn represents a method exit.
	KindMethodReturn
	// KindCodeCount represents an instrumented statement carrying a counter id.
	KindCodeCount
)

func (k NodeKind) String() string {
	switch k {
	case KindMethod:
		return "Method"
	case KindMethodReturn:
		return "MethodReturn"
	case KindCodeCount:
		return "CodeCount"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Discriminator is the leading feature slot for the kind.
func (k NodeKind) Discriminator() float32 {
	switch k {
	case KindMethodReturn:
		return 0.5
	case KindCodeCount:
		return 1
	default:
		return 0
	}
}

// ParseKind is the inverse of String.
func ParseKind(s string) (NodeKind, error) {
	switch s {
	case "Method":
		return KindMethod, nil
	case "MethodReturn":
		return KindMethodReturn, nil
	case "CodeCount":
		return KindCodeCount, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Node is a program graph vertex.
type Node struct {
	ID       string    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name"`
	FileName string    `json:"file_name"`
	Feature  []float32 `json:"feature"`

	// CounterID is only meaningful for KindCodeCount.
	CounterID int `json:"counter_id,omitempty"`
}

// Edge is a directed edge between two node identities.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
