package graph

import (
	"reflect"
	"testing"
)

func TestSplitIntoSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two sentences on one line",
			text: "First sentence. Second sentence.",
			want: []string{"First sentence.", "Second sentence."},
		},
		{
			name: "blank line ends a sentence",
			text: "A heading without punctuation\n\nBody text here.",
			want: []string{"A heading without punctuation", "Body text here."},
		},
		{
			name: "numbered listing is not a boundary",
			text: "Steps: 1. mix 2. bake 3. serve.",
			want: []string{"Steps: 1. mix 2. bake 3. serve."},
		},
		{
			name: "closing quote stays attached",
			text: `She said "Stop." Then she left.`,
			want: []string{`She said "Stop."`, "Then she left."},
		},
		{
			name: "sentence wrapped across lines",
			text: "This sentence continues\non the next line.",
			want: []string{"This sentence continues on the next line."},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitIntoSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitIntoSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitLineIntoSentences(t *testing.T) {
	got := splitLineIntoSentences("One! Two? Three...")
	want := []string{"One!", "Two?", "Three..."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitLineIntoSentences() = %v, want %v", got, want)
	}
}
