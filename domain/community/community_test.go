package community

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
communities:
  - id: solace
    name: Solace Valley
    coordinates: {lat: 45.1, lng: -122.3}
    population: 1200
    energy_self_sufficiency: 82
  - id: ember
    name: Ember Ridge
    coordinates: {lat: 44.9, lng: -121.8}
    population: 800
    energy_self_sufficiency: 64
  - id: willow
    name: Willow Bend
    coordinates: {lat: 46.0, lng: -123.0}
    population: 300
    energy_self_sufficiency: 82
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "communities.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c, ok := dir.Lookup("ember")
	if !ok {
		t.Fatal("ember missing")
	}
	if c.Population != 800 || c.EnergySelfSufficiency != 64 || c.Coordinates.Lat != 44.9 {
		t.Fatalf("unexpected ember: %+v", c)
	}

	all := dir.All()
	if len(all) != 3 || all[0].ID != "solace" || all[2].ID != "willow" {
		t.Fatalf("file order not kept: %+v", all)
	}
}

func TestParseYAML_Rejects(t *testing.T) {
	cases := map[string]string{
		"duplicate": "communities:\n  - {id: a}\n  - {id: a}\n",
		"empty id":  "communities:\n  - {name: nameless}\n",
		"rating":    "communities:\n  - {id: a, energy_self_sufficiency: 140}\n",
		"lat":       "communities:\n  - {id: a, coordinates: {lat: 91, lng: 0}}\n",
		"garbage":   "communities: [",
	}
	for name, raw := range cases {
		if _, err := ParseYAML([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLeaderboard(t *testing.T) {
	dir, err := ParseYAML([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	board := Leaderboard(dir, 0)
	got := []string{board[0].ID, board[1].ID, board[2].ID}
	want := []string{"solace", "willow", "ember"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaderboard = %v, want %v", got, want)
		}
	}

	if top := Leaderboard(dir, 1); len(top) != 1 || top[0].ID != "solace" {
		t.Fatalf("limit not applied: %+v", top)
	}
}
