package gallery

import (
	"fmt"
	"sort"
	"testing"
)

func TestGallery_RandomStaysInBounds(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		draws []int
	}{
		{name: "single photo", keys: []string{"a.jpg"}, draws: []int{0, 5, -3}},
		{name: "several photos", keys: []string{"a.jpg", "b.jpg", "c.jpg"}, draws: []int{0, 1, 2, 3, 7, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, draw := range tt.draws {
				g := New(WithRandom(func(n int) int { return draw }))
				g.Replace(tt.keys)

				key, ok := g.Random()

				if !ok {
					t.Fatalf("Expected a photo for draw %d", draw)
				}

				if !g.Contains(key) {
					t.Errorf("Random returned %q which is not in the gallery", key)
				}
			}
		})
	}
}

func TestGallery_RandomOnEmpty(t *testing.T) {
	g := New()

	if _, ok := g.Random(); ok {
		t.Error("Expected no photo from an empty gallery")
	}

	if _, ok := g.RandomExcept("a.jpg"); ok {
		t.Error("Expected no photo from an empty gallery")
	}
}

func TestGallery_RandomWithRealSource(t *testing.T) {
	g := New()
	keys := []string{}

	for i := 0; i < 25; i++ {
		keys = append(keys, fmt.Sprintf("photo-%02d.jpg", i))
	}

	g.Replace(keys)

	for i := 0; i < 1000; i++ {
		key, ok := g.Random()

		if !ok || !g.Contains(key) {
			t.Fatalf("Random returned %q, ok=%v", key, ok)
		}
	}
}

func TestGallery_RandomExcept(t *testing.T) {
	g := New(WithRandom(func(n int) int { return n - 1 }))
	g.Replace([]string{"a.jpg", "b.jpg", "c.jpg"})

	for _, current := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		key, ok := g.RandomExcept(current)

		if !ok {
			t.Fatal("Expected a photo")
		}

		if key == current {
			t.Errorf("Expected a photo other than %q", current)
		}
	}

	g.Replace([]string{"only.jpg"})

	if key, _ := g.RandomExcept("only.jpg"); key != "only.jpg" {
		t.Errorf("Expected the only photo to be returned, got %q", key)
	}
}

func TestGallery_ReplaceDropsDuplicates(t *testing.T) {
	g := New()
	g.Replace([]string{"a.jpg", "b.jpg", "a.jpg", "", "c.jpg"})

	got := g.Keys()
	want := []string{"a.jpg", "b.jpg", "c.jpg"}

	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestGallery_RemoveKeepsListConsistent(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		remove  []string
		want    []string
		removed []bool
	}{
		{
			name:    "remove middle",
			keys:    []string{"a", "b", "c"},
			remove:  []string{"b"},
			want:    []string{"a", "c"},
			removed: []bool{true},
		},
		{
			name:    "remove last then first",
			keys:    []string{"a", "b", "c"},
			remove:  []string{"c", "a"},
			want:    []string{"b"},
			removed: []bool{true, true},
		},
		{
			name:    "remove twice",
			keys:    []string{"a", "b"},
			remove:  []string{"a", "a"},
			want:    []string{"b"},
			removed: []bool{true, false},
		},
		{
			name:    "remove missing",
			keys:    []string{"a"},
			remove:  []string{"z"},
			want:    []string{"a"},
			removed: []bool{false},
		},
		{
			name:    "remove everything",
			keys:    []string{"a", "b"},
			remove:  []string{"b", "a"},
			want:    []string{},
			removed: []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			g.Replace(tt.keys)

			for i, key := range tt.remove {
				if got := g.Remove(key); got != tt.removed[i] {
					t.Errorf("Remove(%q) = %v, expected %v", key, got, tt.removed[i])
				}

				if g.Contains(key) {
					t.Errorf("Expected %q to be gone", key)
				}
			}

			got := g.Keys()
			sort.Strings(got)

			if len(got) != len(tt.want) || g.Len() != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}

			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}

				if !g.Contains(tt.want[i]) {
					t.Errorf("Expected %q to still be present", tt.want[i])
				}
			}

			for i := 0; i < 20 && g.Len() > 0; i++ {
				key, _ := g.Random()

				if !g.Contains(key) {
					t.Errorf("Random returned removed photo %q", key)
				}
			}
		})
	}
}
