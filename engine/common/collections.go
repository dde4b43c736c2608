package common

import "sort"

// StringSet is a set of strings
type StringSet map[string]struct{}

// Contains checks if Stringset contains the string
func (ss StringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

// Add adds the string to StringSet
func (ss StringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

// Remove removes the string from StringList
func (ss StringSet) Remove(elem string) {
	delete(ss, elem)
}

// ToList convert StringSet to string slice
func (ss StringSet) ToList() []string {
	keys := make([]string, 0, len(ss))
	for s := range ss {
		keys = append(keys, s)
	}
	sort.Strings(keys)
	return keys
}

// AreaIDSet is a set of area IDs
type AreaIDSet map[AreaID]struct{}

// NewAreaIDSet creates an AreaIDSet of the ids
func NewAreaIDSet(ids ...AreaID) AreaIDSet {
	s := make(AreaIDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add adds the area ID to the set
func (s AreaIDSet) Add(id AreaID) {
	s[id] = struct{}{}
}

// Del removes the area ID from the set
func (s AreaIDSet) Del(id AreaID) {
	delete(s, id)
}

// Contains checks if the set contains the area ID
func (s AreaIDSet) Contains(id AreaID) bool {
	_, ok := s[id]
	return ok
}

// Equal checks if two sets have the same area IDs
func (s AreaIDSet) Equal(o AreaIDSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}

// Copy returns a copy of the set
func (s AreaIDSet) Copy() AreaIDSet {
	c := make(AreaIDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// ToList returns the sorted area IDs
func (s AreaIDSet) ToList() []AreaID {
	ids := make([]AreaID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// SortServerIDs sorts server IDs in place and returns them
func SortServerIDs(ids []ServerID) []ServerID {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
