package area

import (
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	trie_tst "github.com/xiaonanln/go-trie-tst"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"gopkg.in/yaml.v3"
)

type areaFile struct {
	Areas []*Area `yaml:"areas"`
}

type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

// World is the static metadata of all areas and instance templates, immutable after load
type World struct {
	areas     map[common.AreaID]*Area
	templates map[common.AreaID]*Template

	nameLock   sync.Mutex
	names      trie_tst.TST
	maxNameLen int
}

// LoadWorld loads areas and instance templates from yaml files
//
// templatePath is optional, instanced areas without template use default capacity and idle timeout
func LoadWorld(areaPath string, templatePath string) (*World, error) {
	var af areaFile
	if err := readYAML(areaPath, &af); err != nil {
		return nil, err
	}

	var tf templateFile
	if templatePath != "" {
		if err := readYAML(templatePath, &tf); err != nil {
			return nil, err
		}
	}

	return NewWorld(af.Areas, tf.Templates)
}

func readYAML(path string, v interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err = yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

// NewWorld validates and indexes areas and templates
func NewWorld(areas []*Area, templates []*Template) (*World, error) {
	w := &World{
		areas:     make(map[common.AreaID]*Area, len(areas)),
		templates: make(map[common.AreaID]*Template, len(templates)),
	}

	for _, a := range areas {
		if a.ID.IsNil() {
			return nil, errors.Errorf("invalid area id %d", a.ID)
		}
		if _, ok := w.areas[a.ID]; ok {
			return nil, errors.Errorf("duplicate area %d", a.ID)
		}
		w.areas[a.ID] = a

		if a.Name == "" {
			continue
		}
		key := strings.ToLower(a.Name)
		node := w.names.Sub(key)
		if node.Val != nil {
			return nil, errors.Errorf("duplicate area name %q: %s and %s", a.Name, node.Val.(*Area), a)
		}
		node.Val = a
		if len(key) > w.maxNameLen {
			w.maxNameLen = len(key)
		}
	}

	for _, a := range w.areas {
		for _, exit := range a.Exits {
			if _, ok := w.areas[exit]; !ok {
				return nil, errors.Errorf("%s has exit to unknown area %d", a, exit)
			}
		}
	}

	for _, t := range templates {
		a := w.areas[t.ID]
		if a == nil || !a.Instanced {
			return nil, errors.Errorf("template %d is not an instanced area", t.ID)
		}
		if _, ok := w.templates[t.ID]; ok {
			return nil, errors.Errorf("duplicate template %d", t.ID)
		}
		if t.Capacity < 0 || t.IdleTimeout < 0 {
			return nil, errors.Errorf("template %d: capacity and idle timeout must not be negative", t.ID)
		}
		tc := *t
		if tc.Capacity == 0 {
			tc.Capacity = consts.DEFAULT_INSTANCE_CAPACITY
		}
		w.templates[t.ID] = &tc
	}

	for _, a := range w.areas {
		if a.Instanced && w.templates[a.ID] == nil {
			gwlog.Warnf("%s has no template, using default capacity %d", a, consts.DEFAULT_INSTANCE_CAPACITY)
			w.templates[a.ID] = &Template{ID: a.ID, Capacity: consts.DEFAULT_INSTANCE_CAPACITY}
		}
	}

	return w, nil
}

// Area returns the area of the ID
func (w *World) Area(id common.AreaID) (*Area, error) {
	a := w.areas[id]
	if a == nil {
		return nil, errors.Wrapf(common.ErrNotFound, "area %d", id)
	}
	return a, nil
}

// Template returns the instance template of the instanced area
func (w *World) Template(id common.AreaID) (*Template, error) {
	t := w.templates[id]
	if t == nil {
		return nil, errors.Wrapf(common.ErrNotFound, "template %d", id)
	}
	return t, nil
}

// Known returns if the area exists in the world
func (w *World) Known(id common.AreaID) bool {
	_, ok := w.areas[id]
	return ok
}

// IsStatic returns if the area exists and is a static area
func (w *World) IsStatic(id common.AreaID) bool {
	a := w.areas[id]
	return a != nil && !a.Instanced
}

// StaticAreas returns IDs of all static areas
func (w *World) StaticAreas() common.AreaIDSet {
	ids := common.AreaIDSet{}
	for id, a := range w.areas {
		if !a.Instanced {
			ids.Add(id)
		}
	}
	return ids
}

// Templates returns all instance templates sorted by ID
func (w *World) Templates() []*Template {
	ts := make([]*Template, 0, len(w.templates))
	for _, t := range w.templates {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].ID < ts[j].ID
	})
	return ts
}

func (w *World) findByName(name string) *Area {
	key := strings.ToLower(name)
	if key == "" || len(key) > w.maxNameLen {
		return nil
	}

	// Sub creates missing nodes, so lookups are serialized too
	w.nameLock.Lock()
	defer w.nameLock.Unlock()
	node := w.names.Sub(key)
	if node.Val == nil {
		return nil
	}
	return node.Val.(*Area)
}
