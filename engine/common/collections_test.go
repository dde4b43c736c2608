package common

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Add("1")
	ss.Add("2")
	assert.T(t, ss.Contains("1"), "should contain")
	assert.T(t, ss.Contains("2"), "should contain")
	ss.Remove("2")
	assert.T(t, !ss.Contains("2"), "should not contain")
	assert.Equal(t, []string{"1"}, ss.ToList())
}

func TestAreaIDSet(t *testing.T) {
	s := NewAreaIDSet(3, 1, 2)
	assert.T(t, s.Contains(1), "should contain")
	assert.Equal(t, []AreaID{1, 2, 3}, s.ToList())
	c := s.Copy()
	c.Del(2)
	assert.T(t, s.Contains(2), "copy should not change origin")
	assert.T(t, !s.Equal(c), "should not be equal")
	c.Add(2)
	assert.T(t, s.Equal(c), "should be equal")
}

func TestSortServerIDs(t *testing.T) {
	ids := SortServerIDs([]ServerID{"instance1", "area2", "area1"})
	assert.Equal(t, []ServerID{"area1", "area2", "instance1"}, ids)
}
