package engine

import (
	"fmt"
	"strings"
)

// Level is the three-tier rating shared by priority, confidence, stability
// and the simulated priority.
type Level string

const (
	High   Level = "High"
	Medium Level = "Medium"
	Low    Level = "Low"
)

// Valid reports whether l is one of High, Medium or Low.
func (l Level) Valid() bool {
	switch l {
	case High, Medium, Low:
		return true
	default:
		return false
	}
}

// Rank orders levels for comparisons: Low=1, Medium=2, High=3, anything else 0.
func (l Level) Rank() int {
	switch l {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseLevel accepts a level name in any letter case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, nil
	case "medium":
		return Medium, nil
	case "low":
		return Low, nil
	default:
		return "", fmt.Errorf("engine: unknown level %q: want high|medium|low", s)
	}
}
