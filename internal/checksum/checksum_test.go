package checksum

import "testing"

func TestSumJSON_StableAndSensitive(t *testing.T) {
	a, err := SumJSON(map[string]string{"budget": "$1"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := SumJSON(map[string]string{"budget": "$1"})
	c, _ := SumJSON(map[string]string{"budget": "$2"})
	if a != b {
		t.Error("same value should produce same digest")
	}
	if a == c {
		t.Error("different values should produce different digests")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d", len(a))
	}
}
