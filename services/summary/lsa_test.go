package summary_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgnote/services/summary"
)

func TestLSASummarizer_ShortInputs(t *testing.T) {
	lsa, err := summary.NewLSASummarizer()
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{name: "no words", text: "123 !!! 456.", want: ""},
		{name: "one sentence", text: "Amazing shot!", want: "Amazing shot!"},
		{name: "two sentences", text: "Nice colours. Love the light.", want: "Nice colours. Love the light."},
		{name: "surrounding space", text: "  Nice colours.   Love the light.  ", want: "Nice colours. Love the light."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lsa.Summarize(tt.text, summary.SummarySentences)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLSASummarizer_PicksTwoSentencesInOrder(t *testing.T) {
	lsa, err := summary.NewLSASummarizer()
	require.NoError(t, err)

	// no word repeats inside a sentence, so a sentence weighs by its number of distinct words
	input := []string{
		"Mountain lake reflects morning sky.",
		"I love this mountain lake under a clear sky.",
		"My cat sleeps.",
		"Perfect mountain lake photo with beautiful sky colours.",
		"Great.",
	}
	text := strings.Join(input, " ")

	got, err := lsa.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, input[1]+" "+input[3], got)

	again, err := lsa.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	all, err := lsa.Summarize(text, 10)
	require.NoError(t, err)
	assert.Equal(t, text, all)
}

func TestLSASummarizer_ZeroCount(t *testing.T) {
	lsa, err := summary.NewLSASummarizer()
	require.NoError(t, err)
	got, err := lsa.Summarize("One. Two. Three.", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
