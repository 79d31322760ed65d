package domain

import "strings"

// Level is a learner's ordinal proficiency level on the CEFR scale.
type Level string

// The six levels in ascending order.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levelOrder = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Levels returns all levels from lowest to highest.
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	candidate := Level(strings.ToUpper(strings.TrimSpace(s)))
	if candidate.Ordinal() < 0 {
		return "", ErrInvalidLevel
	}
	return candidate, nil
}

// Ordinal returns the zero-based position of the level, or -1 if unknown.
func (l Level) Ordinal() int {
	for i, lvl := range levelOrder {
		if lvl == l {
			return i
		}
	}
	return -1
}

// IsValid reports whether l is one of the six known levels.
func (l Level) IsValid() bool {
	return l.Ordinal() >= 0
}

// IsMax reports whether l is the highest level.
func (l Level) IsMax() bool {
	return l == levelOrder[len(levelOrder)-1]
}

// Next returns the level directly above l. The second result is false when
// l is already the highest level or is not a known level.
func (l Level) Next() (Level, bool) {
	i := l.Ordinal()
	if i < 0 || i == len(levelOrder)-1 {
		return l, false
	}
	return levelOrder[i+1], true
}

func (l Level) String() string {
	return string(l)
}
