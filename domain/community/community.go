// Package community is the read-only view of the community registry that
// the exchange depends on. The registry itself lives outside this service;
// here it is either built in memory or loaded from a YAML file.
package community

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"barter/domain/geo"
)

type Community struct {
	ID                    string          `json:"id" yaml:"id"`
	Name                  string          `json:"name" yaml:"name"`
	Coordinates           geo.Coordinates `json:"coordinates" yaml:"coordinates"`
	Population            int64           `json:"population" yaml:"population"`
	EnergySelfSufficiency float64         `json:"energySelfSufficiency" yaml:"energy_self_sufficiency"`
}

// Directory resolves communities by id.
type Directory interface {
	Lookup(id string) (Community, bool)
	All() []Community
}

// Static is an immutable in-memory Directory.
type Static struct {
	byID  map[string]Community
	order []string
}

func NewStatic(cs ...Community) (*Static, error) {
	s := &Static{byID: make(map[string]Community, len(cs))}
	for _, c := range cs {
		if err := validate(c); err != nil {
			return nil, err
		}
		if _, dup := s.byID[c.ID]; dup {
			return nil, fmt.Errorf("community %q listed twice", c.ID)
		}
		s.byID[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return s, nil
}

func (s *Static) Lookup(id string) (Community, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// All returns communities in file order.
func (s *Static) All() []Community {
	out := make([]Community, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// -------------------- YAML --------------------

type file struct {
	Communities []Community `yaml:"communities"`
}

// LoadYAML reads a directory file of the form
//
//	communities:
//	  - id: solace
//	    name: Solace Valley
//	    coordinates: {lat: 45.1, lng: -122.3}
//	    population: 1200
//	    energy_self_sufficiency: 82
func LoadYAML(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(raw)
}

func ParseYAML(raw []byte) (*Static, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("communities.yaml: %w", err)
	}
	return NewStatic(f.Communities...)
}

func validate(c Community) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("community with empty id")
	case c.Population < 0:
		return fmt.Errorf("community %q: negative population", c.ID)
	case c.EnergySelfSufficiency < 0 || c.EnergySelfSufficiency > 100:
		return fmt.Errorf("community %q: energy self-sufficiency %v outside 0-100", c.ID, c.EnergySelfSufficiency)
	case c.Coordinates.Lat < -90 || c.Coordinates.Lat > 90 ||
		c.Coordinates.Lng < -180 || c.Coordinates.Lng > 180:
		return fmt.Errorf("community %q: coordinates out of range", c.ID)
	}
	return nil
}

// Leaderboard ranks communities by energy self-sufficiency, highest first.
// Ties break by name, then id. limit <= 0 returns everyone.
func Leaderboard(d Directory, limit int) []Community {
	all := d.All()
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.EnergySelfSufficiency != b.EnergySelfSufficiency {
			return a.EnergySelfSufficiency > b.EnergySelfSufficiency
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
