package parser

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Cat", "cat"},
		{"nested punctuation", `"(Cats)."`, "cats"},
		{"trailing period", "sunset.", "sunset"},
		{"inner period kept", "e.g.", "e.g"},
		{"inner removed chars", "rock'n'roll", "rocknroll"},
		{"brackets and colon", "[tree]:", "tree"},
		{"backslash", `sky\`, "sky"},
		{"dots and spaces around quotes", ` ."leaf". `, "leaf"},
		{"stop word", "The", ""},
		{"stop word after cleaning", "(and)", ""},
		{"only punctuation", `"();."`, ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTag(tt.in))
		})
	}
}

func TestCleanTagIdempotent(t *testing.T) {
	inputs := []string{`"(Cats)."`, "..Hello..", "'a'", `{"x":1}`, "Dog,", " . ", "ÉCOLE", "e.g."}
	for _, in := range inputs {
		once := CleanTag(in)
		assert.Equal(t, once, CleanTag(once), "input %q", in)
	}
}

func TestCleanTagList(t *testing.T) {
	assert.Equal(t, []string{"cat"}, CleanTagList([]string{"the", "Cat,", "cat"}))
	assert.Equal(t, []string{}, CleanTagList(nil))
}

func TestCleanTags(t *testing.T) {
	raw := "Dog, park,grass\nTrees, the sun.  (Dog)\t\"Leash\""
	got := CleanTags(raw)

	assert.Equal(t, []string{"dog", "grass", "leash", "park", "sun", "trees"}, got)
	assert.True(t, slices.IsSorted(got))
}

func TestCleanTagsDeterministic(t *testing.T) {
	raw := "zebra, Apple, apple., banana, (zebra)"
	first := CleanTags(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CleanTags(raw))
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, first)
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "line one line two", CleanDescription("  line one\nline two\n"))
	assert.Equal(t, "a b", CleanDescription("a\r\nb"))
	assert.Equal(t, "", CleanDescription("\n\n"))
}
