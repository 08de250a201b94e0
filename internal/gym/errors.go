package gym

import "github.com/myrjola/gympal/internal/errors"

var (
	ErrNotFound         = errors.NewSentinel("not found")
	ErrUnknownEntry     = errors.NewSentinel("unknown entry")
	ErrUnknownDay       = errors.NewSentinel("unknown day")
	ErrInvalidIntensity = errors.NewSentinel("intensity must be one of 1, 3, 5, 7 or 10")
	ErrNoAlternatives   = errors.NewSentinel("no alternatives found")
	ErrUnknownSkill     = errors.NewSentinel("unknown skill tree")
	ErrSkillMaxed       = errors.NewSentinel("skill tree already at the top level")
	ErrNoPendingAdvance = errors.NewSentinel("no week advance awaiting confirmation")
	ErrInvalidInput     = errors.NewSentinel("invalid input")
)
