package structure

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog is the set of named structures tournaments can be started against.
// It is populated once at startup and read-only afterwards.
type Catalog struct {
	structures map[string]*Structure
}

// NewCatalog returns a catalog holding the built-in structures.
func NewCatalog() *Catalog {
	c := &Catalog{structures: make(map[string]*Structure)}
	for name, s := range builtins() {
		c.structures[name] = s
	}
	return c
}

// Add registers a structure under a name, replacing any existing entry.
func (c *Catalog) Add(name string, s *Structure) {
	c.structures[name] = s
}

// Get looks up a structure by name.
func (c *Catalog) Get(name string) (*Structure, bool) {
	s, ok := c.structures[name]
	return s, ok
}

// Names lists the available structure names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.structures))
	for name := range c.structures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type yamlFile struct {
	Structures []yamlStructure `yaml:"structures"`
}

type yamlStructure struct {
	Name   string      `yaml:"name"`
	Levels []yamlLevel `yaml:"levels"`
}

type yamlLevel struct {
	Kind     Kind   `yaml:"kind"`
	Game     string `yaml:"game"`
	Small    int    `yaml:"small"`
	Big      int    `yaml:"big"`
	Ante     int    `yaml:"ante"`
	BringIn  int    `yaml:"bring_in"`
	Duration string `yaml:"duration"`
}

// LoadFile merges structures from a YAML file into the catalog. File entries
// override built-ins of the same name.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read structures file: %w", err)
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse structures file: %w", err)
	}

	for _, ys := range file.Structures {
		if ys.Name == "" {
			return fmt.Errorf("structures file contains an unnamed structure")
		}
		levels := make([]Level, 0, len(ys.Levels))
		for i, yl := range ys.Levels {
			level, err := yl.toLevel()
			if err != nil {
				return fmt.Errorf("structure %q level %d: %w", ys.Name, i+1, err)
			}
			levels = append(levels, level)
		}
		c.Add(ys.Name, New(levels))
	}
	return nil
}

func (yl yamlLevel) toLevel() (Level, error) {
	duration, err := time.ParseDuration(yl.Duration)
	if err != nil && yl.Kind != KindDone {
		return Level{}, fmt.Errorf("bad duration %q: %w", yl.Duration, err)
	}
	switch yl.Kind {
	case KindBlinds:
		return Blinds(yl.Game, yl.Small, yl.Big, yl.Ante, duration), nil
	case KindLimit:
		return Limit(yl.Game, yl.Small, yl.Big, duration), nil
	case KindStud:
		return Stud(yl.Game, yl.Ante, yl.BringIn, yl.Small, yl.Big, duration), nil
	case KindBreak:
		return Break(duration), nil
	case KindDone:
		return Done, nil
	default:
		return Level{}, fmt.Errorf("unknown level kind %q", yl.Kind)
	}
}
