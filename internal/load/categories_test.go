package load

import (
	"slices"
	"testing"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

func rec(id, track, skill, desc string) core.CleanRecord {
	return core.CleanRecord{
		ID:               id,
		AgeRange:         "18-24",
		Country:          "Nigeria",
		Referral:         "friend",
		Experience:       "none",
		Track:            track,
		HoursAvailable:   "7-14 hours",
		Aim:              "learn",
		SkillLevel:       skill,
		SkillDescription: desc,
	}
}

// ============================================================================
// BuildCategoryTables
// ============================================================================

func TestBuildCategoryTables_FirstSeenIDs(t *testing.T) {
	records := []core.CleanRecord{
		rec("S1", "web", "beginner", "new"),
		rec("S2", "data", "beginner", "new"),
		rec("S3", "web", "advanced", "pro"),
		rec("S4", "cloud", "beginner", "some basics"),
	}

	ts := BuildCategoryTables(records)

	track := ts.Get(core.CategoryTrack)
	var got []string
	for _, e := range track.Entries() {
		got = append(got, e.Key.Value)
	}
	if want := []string{"web", "data", "cloud"}; !slices.Equal(got, want) {
		t.Errorf("track values = %v, want %v", got, want)
	}
	if id, ok := track.IDOf(DimensionKey{Value: "data"}); !ok || id != 2 {
		t.Errorf("IDOf(data) = %d, %v, want 2, true", id, ok)
	}
	if k, ok := track.KeyOf(3); !ok || k.Value != "cloud" {
		t.Errorf("KeyOf(3) = %+v, %v, want cloud", k, ok)
	}
	if _, ok := track.KeyOf(0); ok {
		t.Error("KeyOf(0) ok = true, want false")
	}

	skill := ts.Get(core.CategorySkillLevel)
	if skill.Len() != 3 {
		t.Errorf("skill_level Len() = %d, want 3 (keyed by label and description)", skill.Len())
	}
	if ts.Get(core.CategoryCountry).Len() != 1 {
		t.Errorf("country Len() = %d, want 1", ts.Get(core.CategoryCountry).Len())
	}
}

func TestBuildCategoryTables_Deterministic(t *testing.T) {
	records := []core.CleanRecord{
		rec("S1", "web", "beginner", "new"),
		rec("S2", "data", "intermediate", "ok"),
		rec("S3", "web", "beginner", "new"),
	}

	a := BuildCategoryTables(records)
	b := BuildCategoryTables(records)
	for _, c := range core.Categories {
		if !slices.Equal(a.Get(c).Entries(), b.Get(c).Entries()) {
			t.Errorf("%s entries differ between builds", c)
		}
	}
}

func TestBuildCategoryTables_AllCategoriesPresent(t *testing.T) {
	ts := BuildCategoryTables(nil)
	all := ts.All()
	if len(all) != len(core.Categories) {
		t.Fatalf("len(All()) = %d, want %d", len(all), len(core.Categories))
	}
	for i, table := range all {
		if table.Category != core.Categories[i] {
			t.Errorf("All()[%d] = %s, want %s", i, table.Category, core.Categories[i])
		}
		if table.Len() != 0 {
			t.Errorf("%s Len() = %d, want 0", table.Category, table.Len())
		}
	}
}

func TestKeyFor(t *testing.T) {
	r := rec("S1", "web", "beginner", "new to it")
	if got := KeyFor(&r, core.CategorySkillLevel); got != (DimensionKey{Value: "beginner", Description: "new to it"}) {
		t.Errorf("KeyFor(skill_level) = %+v", got)
	}
	if got := KeyFor(&r, core.CategoryTrack); got != (DimensionKey{Value: "web"}) {
		t.Errorf("KeyFor(track) = %+v", got)
	}
}

// ============================================================================
// CountryResolver
// ============================================================================

func TestCountryResolver(t *testing.T) {
	r := DefaultCountryResolver()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "South Africa", want: "ZA", wantOK: true},
		{raw: "  nigeria ", want: "NG", wantOK: true},
		{raw: "KENYA", want: "KE", wantOK: true},
		{raw: "ZA", want: "ZA", wantOK: true},
		{raw: "gha", want: "GH", wantOK: true},
		{raw: "Côte d’Ivoire", want: "CI", wantOK: true},
		{raw: "Ivory Coast", want: "CI", wantOK: true},
		{raw: "USA", want: "US", wantOK: true},
		{raw: "the Netherlands", want: "NL", wantOK: true},
		{raw: "Atlantis", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := r.Resolve(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"São Tomé & Príncipe", "sao tome principe"},
		{"  Guinea-Bissau ", "guinea bissau"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeCountry(tt.in); got != tt.want {
			t.Errorf("normalizeCountry(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
