package gym

import "slices"

// Resolver finds interchangeable variants of an exercise in a table of safe alternatives.
type Resolver struct {
	table []AlternativeSet
}

// NewResolver creates a resolver over table. Lookups walk the table in order.
func NewResolver(table []AlternativeSet) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the substitutes for name.
//
// A canonical exercise yields its alternatives as listed. An exercise that is itself listed as an
// alternative yields its canonical exercise first, followed by the remaining siblings. Unknown
// exercises yield an empty list.
func (r *Resolver) Resolve(name string) []Variant {
	for _, set := range r.table {
		if set.Exercise == name {
			return slices.Clone(set.Variants)
		}
	}
	for _, set := range r.table {
		i := slices.IndexFunc(set.Variants, func(v Variant) bool { return v.Name == name })
		if i < 0 {
			continue
		}
		out := make([]Variant, 0, len(set.Variants))
		out = append(out, Variant{Name: set.Exercise, Note: "Original variant", Description: "Standard variation"})
		out = append(out, set.Variants[:i]...)
		return append(out, set.Variants[i+1:]...)
	}
	return []Variant{}
}
