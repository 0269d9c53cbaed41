package models

import (
	"encoding/json"
	"testing"
)

func sampleClient() Client {
	return Client{
		ID:         "1",
		Name:       "Giphy",
		ClientLead: "Sarah Johnson",
		TeamSize:   4,
		Budget:     "$250,000",
		Goals:      []string{"Launch 3 Viral Campaign Series"},
		Comments:   []Comment{{ID: "c1", Author: "Mike Chen", Content: "hi"}},
	}
}

func TestApply_OverwritesOnlySetKeys(t *testing.T) {
	c := sampleClient()
	budget := "$9"
	got := ClientPatch{Budget: &budget}.Apply(c)

	if got.Budget != "$9" {
		t.Errorf("budget = %q, want $9", got.Budget)
	}
	if got.Name != c.Name || got.ClientLead != c.ClientLead || got.TeamSize != c.TeamSize {
		t.Errorf("unrelated fields changed: %+v", got)
	}
	if len(got.Comments) != 1 || got.Comments[0].ID != "c1" {
		t.Errorf("comments changed: %+v", got.Comments)
	}
	if c.Budget != "$250,000" {
		t.Errorf("input client mutated: %q", c.Budget)
	}
}

func TestApply_ReplacesCollections(t *testing.T) {
	c := sampleClient()
	goals := []string{"a", "b"}
	got := ClientPatch{Goals: &goals}.Apply(c)
	if len(got.Goals) != 2 || got.Goals[1] != "b" {
		t.Fatalf("goals = %v", got.Goals)
	}
	goals[0] = "mutated"
	if got.Goals[0] != "a" {
		t.Error("applied slice aliases the patch slice")
	}
}

func TestPatchFromJSON_AbsentKeysStayNil(t *testing.T) {
	var p ClientPatch
	if err := json.Unmarshal([]byte(`{"budget":"$1","teamSize":0}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Budget == nil || *p.Budget != "$1" {
		t.Errorf("budget = %v", p.Budget)
	}
	if p.TeamSize == nil || *p.TeamSize != 0 {
		t.Errorf("teamSize should be set to zero, got %v", p.TeamSize)
	}
	if p.Name != nil || p.Comments != nil {
		t.Error("absent keys should decode as nil")
	}
}

func TestClientPatchFromFields(t *testing.T) {
	p := ClientPatchFromFields(map[string]string{
		"companyProfile": "New profile",
		"boxUrl":         "https://app.box.com/folder/x",
		"unknown":        "ignored",
	})
	if p.CompanyProfile == nil || *p.CompanyProfile != "New profile" {
		t.Errorf("companyProfile = %v", p.CompanyProfile)
	}
	if p.BoxURL == nil || *p.BoxURL != "https://app.box.com/folder/x" {
		t.Errorf("boxUrl = %v", p.BoxURL)
	}
	if p.Name != nil {
		t.Error("name should not be set")
	}
	if (ClientPatch{}).IsEmpty() == false {
		t.Error("zero patch should be empty")
	}
	if p.IsEmpty() {
		t.Error("patch with fields should not be empty")
	}
}

func TestEffectiveBrandColor(t *testing.T) {
	if got := (Client{}).EffectiveBrandColor(); got != DefaultBrandColor {
		t.Errorf("default = %q", got)
	}
	if got := (Client{BrandColor: "#E50914"}).EffectiveBrandColor(); got != "#E50914" {
		t.Errorf("explicit = %q", got)
	}
}

func TestParseBucket(t *testing.T) {
	for in, want := range map[string]Bucket{"": BucketCurrent, "Archived": BucketArchived, "prospective": BucketProspective} {
		got, err := ParseBucket(in)
		if err != nil || got != want {
			t.Errorf("ParseBucket(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBucket("deleted"); err == nil {
		t.Error("expected error for unknown bucket")
	}
}

func TestPartitionTeam(t *testing.T) {
	assigned, unassigned := PartitionTeam([]TeamMember{
		{ID: "1", IsAssigned: true}, {ID: "2"}, {ID: "3", IsAssigned: true},
	})
	if len(assigned) != 2 || assigned[1].ID != "3" {
		t.Errorf("assigned = %+v", assigned)
	}
	if len(unassigned) != 1 || unassigned[0].ID != "2" {
		t.Errorf("unassigned = %+v", unassigned)
	}
}

func TestFieldValue(t *testing.T) {
	c := Client{Name: "Netflix", BoxURL: "https://box"}
	if v, ok := FieldValue(c, "boxUrl"); !ok || v != "https://box" {
		t.Errorf("boxUrl = %q, %v", v, ok)
	}
	if _, ok := FieldValue(c, "teamSize"); ok {
		t.Error("teamSize is not a text field")
	}
	for name := range map[string]string{"name": "", "budget": "", "projectScope": ""} {
		p := ClientPatchFromFields(map[string]string{name: "x"})
		got, _ := FieldValue(p.Apply(c), name)
		if got != "x" {
			t.Errorf("%s round trip = %q", name, got)
		}
	}
}
