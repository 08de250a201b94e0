package gym

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var catalogTOML string

// Variant is a substitute movement offered in place of another exercise.
type Variant struct {
	Name        string `toml:"name"`
	Note        string `toml:"note"`
	Description string `toml:"description"`
}

// AlternativeSet lists the safe substitutes for a canonical exercise.
type AlternativeSet struct {
	Exercise string    `toml:"exercise"`
	Variants []Variant `toml:"variants"`
}

// SkillLevel is one step of a skill tree.
type SkillLevel struct {
	Level    int    `toml:"level"`
	Title    string `toml:"title"`
	Criteria string `toml:"criteria"`
}

// SkillTree is an independent ladder of calisthenics milestones.
type SkillTree struct {
	ID          string       `toml:"id"`
	Title       string       `toml:"title"`
	Description string       `toml:"description"`
	Levels      []SkillLevel `toml:"levels"`
}

// MaxLevel is the highest level of the tree.
func (t SkillTree) MaxLevel() int {
	top := 0
	for _, l := range t.Levels {
		top = max(top, l.Level)
	}
	return top
}

// LibraryExercise is a movement from the equipment library.
type LibraryExercise struct {
	Name   string `toml:"name"`
	Target string `toml:"target"`
}

type catalogEntry struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Sets        string `toml:"sets"`
	Reps        string `toml:"reps"`
	Kind        Kind   `toml:"kind"`
	Load        int    `toml:"load"`
	Unit        Unit   `toml:"unit"`
	Note        string `toml:"note"`
	Description string `toml:"description"`
}

type catalogSection struct {
	Title   string         `toml:"title"`
	Entries []catalogEntry `toml:"entries"`
}

type catalogDay struct {
	Day      Weekday          `toml:"day"`
	Title    string           `toml:"title"`
	Subtitle string           `toml:"subtitle"`
	Sections []catalogSection `toml:"sections"`
}

// Catalog is the static reference data: substitutes, skill trees, the seed plan and the equipment library.
type Catalog struct {
	Alternatives []AlternativeSet  `toml:"alternatives"`
	SkillTrees   []SkillTree       `toml:"skill_trees"`
	Library      []LibraryExercise `toml:"library"`
	Plan         []catalogDay      `toml:"plan"`
}

var (
	defaultCatalog     *Catalog //nolint:gochecknoglobals // decoded once.
	defaultCatalogErr  error    //nolint:gochecknoglobals // decoded once.
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog. It is decoded on first use.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(catalogTOML)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog decodes a catalog in TOML form and validates the seed plan.
func LoadCatalog(data string) (*Catalog, error) {
	var c Catalog
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown catalog keys: %v", undecoded)
	}
	seen := make(map[string]bool)
	for _, d := range c.Plan {
		if d.Day.Index() < 0 {
			return nil, fmt.Errorf("unknown plan day %q", d.Day)
		}
		for _, s := range d.Sections {
			for _, e := range s.Entries {
				if seen[e.ID] {
					return nil, fmt.Errorf("duplicate plan entry id %q", e.ID)
				}
				seen[e.ID] = true
			}
		}
	}
	return &c, nil
}

// InitialPlan returns a fresh copy of the seed plan with all seven days present.
func (c *Catalog) InitialPlan() Plan {
	plan := make(Plan, len(c.Plan))
	for _, d := range c.Plan {
		sections := make([]Section, 0, len(d.Sections))
		for _, s := range d.Sections {
			entries := make([]ExerciseEntry, 0, len(s.Entries))
			for _, e := range s.Entries {
				entries = append(entries, entryJSON(e).entry())
			}
			sections = append(sections, Section{Title: s.Title, Entries: entries, AdHoc: false})
		}
		plan[d.Day] = DayPlan{ID: d.Day, Title: d.Title, Subtitle: d.Subtitle, Sections: sections}
	}
	return NormalizePlan(plan)
}

// SkillTree looks up a tree by id.
func (c *Catalog) SkillTree(id string) (SkillTree, bool) {
	for _, t := range c.SkillTrees {
		if t.ID == id {
			return t, true
		}
	}
	return SkillTree{}, false
}

// LibraryVariant describes an equipment library movement as a substitute variant.
func (c *Catalog) LibraryVariant(name string) (Variant, bool) {
	for _, l := range c.Library {
		if l.Name == name {
			return Variant{
				Name:        l.Name,
				Note:        fmt.Sprintf("Targets %s.", l.Target),
				Description: fmt.Sprintf("A guided movement primarily engaging the %s.", strings.ToLower(l.Target)),
			}, true
		}
	}
	return Variant{}, false
}

// SeedNames is every exercise name the catalog knows about, sorted and without duplicates.
func (c *Catalog) SeedNames() []string {
	names := c.InitialPlan().Names()
	for _, set := range c.Alternatives {
		names = append(names, set.Exercise)
		for _, v := range set.Variants {
			names = append(names, v.Name)
		}
	}
	for _, l := range c.Library {
		names = append(names, l.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
