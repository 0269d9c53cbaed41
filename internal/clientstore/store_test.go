package clientstore

import (
	"reflect"
	"sync"
	"testing"

	"github.com/starford/dealroom/internal/models"
)

func strPtr(s string) *string { return &s }

func testSeed() Seed {
	return Seed{
		Current: []models.Client{
			{ID: "1", Name: "Giphy", ClientLead: "Sarah Johnson", Budget: "$250,000", Goals: []string{"g"}},
			{ID: "2", Name: "Netflix", ClientLead: "Mike Chen", Budget: "$500,000"},
		},
		Archived:    []models.Client{{ID: "3", Name: "Spotify", ClientLead: "Alex Rodriguez", Budget: "$300,000"}},
		Prospective: []models.Client{{ID: "4", Name: "Adobe", ClientLead: "TBD", Budget: "TBD"}},
		Team: []models.TeamMember{
			{ID: "1", Name: "Sarah Johnson", IsAssigned: true},
			{ID: "4", Name: "Jessica Kim"},
		},
	}
}

func TestUpdateClient_Merges(t *testing.T) {
	s := New(testSeed())
	before, _, _ := s.Get("1")

	if !s.UpdateClient("1", models.ClientPatch{Budget: strPtr("$9")}) {
		t.Fatal("update should apply")
	}
	after, b, ok := s.Get("1")
	if !ok || b != models.BucketCurrent {
		t.Fatalf("get: ok=%v bucket=%q", ok, b)
	}
	want := before
	want.Budget = "$9"
	if !reflect.DeepEqual(after, want) {
		t.Errorf("after = %+v\nwant  %+v", after, want)
	}
}

func TestUpdateClient_UnknownIDLeavesBucketsUnchanged(t *testing.T) {
	s := New(testSeed())
	var changes int
	s.Subscribe(func(Change) { changes++ })

	before := map[models.Bucket][]models.Client{}
	for _, b := range models.AllBuckets {
		before[b] = s.List(b)
	}
	if s.UpdateClient("nope", models.ClientPatch{Budget: strPtr("$9")}) {
		t.Error("unknown id should report false")
	}
	for _, b := range models.AllBuckets {
		if !reflect.DeepEqual(before[b], s.List(b)) {
			t.Errorf("bucket %s changed", b)
		}
	}
	if changes != 0 {
		t.Errorf("listeners notified %d times", changes)
	}
}

func TestUpdateClient_AcrossBuckets(t *testing.T) {
	s := New(testSeed())
	s.UpdateClient("3", models.ClientPatch{Budget: strPtr("$9")})

	one, _, _ := s.Get("1")
	three, b, _ := s.Get("3")
	if one.Budget != "$250,000" {
		t.Errorf("client 1 budget = %q", one.Budget)
	}
	if three.Budget != "$9" || b != models.BucketArchived {
		t.Errorf("client 3 = %q in %q", three.Budget, b)
	}
}

func TestUpdateClient_FirstMatchWins(t *testing.T) {
	seed := testSeed()
	seed.Prospective = append(seed.Prospective, models.Client{ID: "1", Name: "Shadow", Budget: "$0"})
	s := New(seed)

	s.UpdateClient("1", models.ClientPatch{Budget: strPtr("$9")})
	if got := s.List(models.BucketProspective)[1].Budget; got != "$0" {
		t.Errorf("later duplicate updated: %q", got)
	}
}

func TestReadsDoNotAlias(t *testing.T) {
	s := New(testSeed())
	c, _, _ := s.Get("1")
	c.Goals[0] = "mutated"
	c.Name = "mutated"
	again, _, _ := s.Get("1")
	if again.Goals[0] != "g" || again.Name != "Giphy" {
		t.Errorf("store aliased by reader: %+v", again)
	}
}

func TestFilter(t *testing.T) {
	s := New(testSeed())
	if got := s.Filter(models.BucketCurrent, ""); len(got) != 2 {
		t.Errorf("empty query = %d clients", len(got))
	}
	got := s.Filter(models.BucketCurrent, "mike")
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("lead match = %+v", got)
	}
	got = s.Filter(models.BucketCurrent, "GIPHY")
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("name match = %+v", got)
	}
	if got := s.Filter(models.BucketArchived, "giphy"); len(got) != 0 {
		t.Errorf("filter leaked across buckets: %+v", got)
	}
}

func TestCounts(t *testing.T) {
	s := New(testSeed())
	c := s.Counts()
	if c[models.BucketCurrent] != 2 || c[models.BucketArchived] != 1 || c[models.BucketProspective] != 1 {
		t.Errorf("counts = %v", c)
	}
}

func TestSubscribeAndReset(t *testing.T) {
	s := New(testSeed())
	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	s.UpdateClient("2", models.ClientPatch{Name: strPtr("Netflix Inc")})
	s.UpdateClient("4", models.ClientPatch{ClientLead: strPtr("Mike Chen")})
	s.Reset(testSeed())

	if len(got) != 3 {
		t.Fatalf("changes = %d", len(got))
	}
	if got[0].ClientID != "2" || got[0].Bucket != models.BucketCurrent || got[0].Client.Name != "Netflix Inc" {
		t.Errorf("first change = %+v", got[0])
	}
	if got[1].Bucket != models.BucketProspective {
		t.Errorf("second change bucket = %q", got[1].Bucket)
	}
	if got[2].Kind != ChangeReset {
		t.Errorf("third change = %q", got[2].Kind)
	}
	c, _, _ := s.Get("2")
	if c.Name != "Netflix" {
		t.Errorf("reset did not restore seed: %q", c.Name)
	}
}

func TestMutate_ConcurrentAppendsAreAtomic(t *testing.T) {
	s := New(testSeed())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mutate("1", func(c models.Client) (models.ClientPatch, bool) {
				goals := append(c.Goals, "x")
				return models.ClientPatch{Goals: &goals}, true
			})
		}()
	}
	wg.Wait()
	c, _, _ := s.Get("1")
	if len(c.Goals) != 21 {
		t.Errorf("goals = %d, want 21", len(c.Goals))
	}
}

func TestMutate_DeclinedLeavesRecord(t *testing.T) {
	s := New(testSeed())
	var changes int
	s.Subscribe(func(Change) { changes++ })
	_, ok := s.Mutate("1", func(models.Client) (models.ClientPatch, bool) {
		return models.ClientPatch{Budget: strPtr("$0")}, false
	})
	if ok || changes != 0 {
		t.Errorf("ok=%v changes=%d", ok, changes)
	}
	if c, _, _ := s.Get("1"); c.Budget != "$250,000" {
		t.Errorf("budget = %q", c.Budget)
	}
	if _, ok := s.Mutate("missing", func(models.Client) (models.ClientPatch, bool) {
		t.Error("fn called for unknown id")
		return models.ClientPatch{}, true
	}); ok {
		t.Error("unknown id should report false")
	}
}

func TestTeamMembers(t *testing.T) {
	s := New(testSeed())
	team := s.TeamMembers()
	team[0].Name = "mutated"
	if s.TeamMembers()[0].Name != "Sarah Johnson" {
		t.Error("team roster aliased")
	}
}
