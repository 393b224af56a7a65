package structure

// Structure is the immutable, ordered catalog of levels a tournament follows.
// Levels are addressed by 1-based index; any index past the end yields the
// terminal level. Structures are shared read-only across every room that
// references the same name and are never mutated after construction.
type Structure struct {
	levels []Level
}

// New copies the given levels into a Structure.
func New(levels []Level) *Structure {
	s := &Structure{levels: make([]Level, len(levels))}
	copy(s.levels, levels)
	return s
}

// LevelAt returns the 1-indexed level, or the terminal sentinel when the
// index falls outside the structure.
func (s *Structure) LevelAt(i int) Level {
	if i < 1 || i >= len(s.levels) {
		return Done
	}
	return s.levels[i-1]
}

// Len is the number of configured levels.
func (s *Structure) Len() int {
	return len(s.levels)
}
