package gym

import (
	"fmt"
	"maps"
)

// UnlockSkill returns levels with the tree raised by one level.
func UnlockSkill(catalog *Catalog, levels map[string]int, treeID string) (map[string]int, error) {
	tree, ok := catalog.SkillTree(treeID)
	if !ok {
		return levels, fmt.Errorf("unlock %s: %w", treeID, ErrUnknownSkill)
	}
	current := max(levels[treeID], 1)
	if current >= tree.MaxLevel() {
		return levels, fmt.Errorf("unlock %s: %w", treeID, ErrSkillMaxed)
	}
	out := maps.Clone(levels)
	if out == nil {
		out = map[string]int{}
	}
	out[treeID] = current + 1
	return out, nil
}

// SkillState is how far the user has come on a single level of a tree.
type SkillState string

const (
	SkillUnlocked SkillState = "unlocked"
	SkillNext     SkillState = "next"
	SkillLocked   SkillState = "locked"
)

// LevelState classifies level for a user currently at current.
func LevelState(current, level int) SkillState {
	switch {
	case level <= current:
		return SkillUnlocked
	case level == current+1:
		return SkillNext
	default:
		return SkillLocked
	}
}
