package gym

import (
	"slices"
	"strings"
)

// AddMasterName returns list with name added, keeping it sorted and free of duplicates. The second
// return value is false when name is blank or already present.
func AddMasterName(list []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list, false
	}
	i, found := slices.BinarySearch(list, name)
	if found {
		return list, false
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, name)
	return append(out, list[i:]...), true
}

// DeleteMasterName returns list without name.
func DeleteMasterName(list []string, name string) ([]string, bool) {
	i := slices.Index(list, name)
	if i < 0 {
		return list, false
	}
	return slices.Delete(slices.Clone(list), i, i+1), true
}

// mergeMasterNames adds names to list and sorts the result.
func mergeMasterNames(list []string, names ...string) []string {
	out := make([]string, 0, len(list)+len(names))
	out = append(out, list...)
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
