package selection

import (
	"testing"
	"time"

	"github.com/mycelica/mycimport/pkg/claudeexport"
)

func convs() []claudeexport.Conversation {
	return []claudeexport.Conversation{
		{UUID: "a", Name: "Mycelica layout", CreatedAt: "2024-01-10T00:00:00Z"},
		{UUID: "b", Name: "Groceries", CreatedAt: "2024-02-10T00:00:00Z"},
		{UUID: "c", Name: "MYCELICA clustering", CreatedAt: "2024-03-10T00:00:00Z"},
		{UUID: "d", Name: "", CreatedAt: "garbage"},
	}
}

func ids(cs []claudeexport.Conversation) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.UUID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		want         []string
		wantExcluded int
		wantFiltered int
	}{
		{
			name: "no options keeps everything in order",
			want: []string{"a", "b", "c", "d"},
		},
		{
			name:         "exclusion list",
			opts:         Options{ExcludeIDs: []string{"b", "zzz"}},
			want:         []string{"a", "c", "d"},
			wantExcluded: 1,
		},
		{
			name:         "name filter is case insensitive",
			opts:         Options{NameContains: "Mycelica"},
			want:         []string{"a", "c"},
			wantFiltered: 2,
		},
		{
			name:         "since keeps unparseable dates",
			opts:         Options{Since: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
			want:         []string{"b", "c", "d"},
			wantFiltered: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(convs(), tt.opts)
			got := ids(res.Conversations)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Apply() = %v, want %v", got, tt.want)
					break
				}
			}
			if res.Excluded != tt.wantExcluded || res.Filtered != tt.wantFiltered {
				t.Errorf("Excluded/Filtered = %d/%d, want %d/%d", res.Excluded, res.Filtered, tt.wantExcluded, tt.wantFiltered)
			}
		})
	}
}

func TestApply_ShuffleSeeded(t *testing.T) {
	input := convs()
	first := ids(Apply(input, Options{Shuffle: true, Seed: 42}).Conversations)
	second := ids(Apply(input, Options{Shuffle: true, Seed: 42}).Conversations)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed gave different orders: %v vs %v", first, second)
		}
	}
	if len(first) != len(input) {
		t.Errorf("shuffle changed the count: %d", len(first))
	}
	if ids(input)[0] != "a" {
		t.Error("Apply() must not reorder its input")
	}
}
