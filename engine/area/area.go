package area

import (
	"fmt"
	"time"

	"github.com/zoneworld/zoneworld/engine/common"
)

// Area is a named region of the world
//
// Static areas are owned by exactly one area server. Instanced areas are templates of instances.
type Area struct {
	ID        common.AreaID   `yaml:"id" json:"id"`
	Name      string          `yaml:"name" json:"name"`
	Level     int             `yaml:"level" json:"level"`
	Width     int             `yaml:"width" json:"width"`
	Height    int             `yaml:"height" json:"height"`
	Exits     []common.AreaID `yaml:"exits" json:"exits"`
	Instanced bool            `yaml:"instanced" json:"instanced"`
}

func (a *Area) String() string {
	if a.Instanced {
		return fmt.Sprintf("Area<%d|%s|instanced>", a.ID, a.Name)
	}
	return fmt.Sprintf("Area<%d|%s>", a.ID, a.Name)
}

// Template defines how instances of an instanced area are created
type Template struct {
	ID          common.AreaID `yaml:"id" json:"id"`
	Capacity    int           `yaml:"capacity" json:"capacity"`
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// Kind restricts FindArea to static or instanced areas
type Kind int

const (
	// AnyKind matches all areas
	AnyKind Kind = iota
	// StaticKind matches static areas only
	StaticKind
	// InstancedKind matches instanced areas only
	InstancedKind
)

func (k Kind) match(a *Area) bool {
	switch k {
	case StaticKind:
		return !a.Instanced
	case InstancedKind:
		return a.Instanced
	}
	return true
}

// Criteria of FindArea, by ID if ID is set, otherwise by name (case-insensitive)
type Criteria struct {
	ID   common.AreaID
	Name string
	Kind Kind
}
