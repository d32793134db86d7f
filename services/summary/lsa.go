package summary

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"gonum.org/v1/gonum/mat"
)

const (
	// termFrequencySmoothing damps the weight of words repeated within one sentence.
	termFrequencySmoothing = 0.4
	minRankDimensions      = 3
)

var wordPattern = regexp.MustCompile(`^\pL[\pL'-]*$`)

// LSASummarizer picks the sentences that weigh most on the latent topics of a text,
// found by a singular value decomposition of its term-sentence matrix.
type LSASummarizer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewLSASummarizer() (*LSASummarizer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &LSASummarizer{tokenizer: tokenizer}, nil
}

// Summarize returns up to count sentences of text, in their original order, joined by a space.
func (s *LSASummarizer) Summarize(text string, count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	sents := s.splitSentences(text)
	words := make([][]string, len(sents))
	dictionary := map[string]int{}
	for i, sent := range sents {
		words[i] = splitWords(sent)
		for _, w := range words[i] {
			if _, ok := dictionary[w]; !ok {
				dictionary[w] = len(dictionary)
			}
		}
	}
	if len(dictionary) == 0 {
		return "", nil
	}
	if len(sents) <= count {
		return strings.Join(sents, " "), nil
	}

	ranks, err := rankSentences(termSentenceMatrix(words, dictionary))
	if err != nil {
		return "", err
	}
	return strings.Join(pickBest(sents, ranks, count), " "), nil
}

func (s *LSASummarizer) splitSentences(text string) []string {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(sent.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitWords lower-cases the words of a sentence, dropping numbers and punctuation.
func splitWords(sentence string) []string {
	fields := strings.FieldsFunc(sentence, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-' && r != '_'
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if wordPattern.MatchString(f) {
			words = append(words, strings.ToLower(f))
		}
	}
	return words
}

// termSentenceMatrix counts words per sentence, then replaces each count by the
// smoothed frequency relative to the most frequent word of that sentence.
func termSentenceMatrix(words [][]string, dictionary map[string]int) *mat.Dense {
	m := mat.NewDense(len(dictionary), len(words), nil)
	for col, sent := range words {
		for _, w := range sent {
			row := dictionary[w]
			m.Set(row, col, m.At(row, col)+1)
		}
	}
	rows, cols := m.Dims()
	for col := 0; col < cols; col++ {
		maxCount := 0.0
		for row := 0; row < rows; row++ {
			maxCount = math.Max(maxCount, m.At(row, col))
		}
		if maxCount == 0 {
			continue
		}
		for row := 0; row < rows; row++ {
			freq := m.At(row, col) / maxCount
			m.Set(row, col, termFrequencySmoothing+(1-termFrequencySmoothing)*freq)
		}
	}
	return m
}

// rankSentences scores sentence j as sqrt(sum_i sigma_i^2 * V[j,i]^2).
func rankSentences(m *mat.Dense) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, errors.New("svd did not converge")
	}
	sigma := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	dimensions := max(minRankDimensions, len(sigma))
	rows, cols := v.Dims()
	if cols > len(sigma) {
		return nil, fmt.Errorf("svd returned %d vectors for %d values", cols, len(sigma))
	}
	ranks := make([]float64, rows)
	for j := 0; j < rows; j++ {
		var rank float64
		for i := 0; i < cols && i < dimensions; i++ {
			rank += sigma[i] * sigma[i] * v.At(j, i) * v.At(j, i)
		}
		ranks[j] = math.Sqrt(rank)
	}
	return ranks, nil
}

// pickBest keeps the count best ranked sentences, earlier ones winning ties,
// and returns them in document order.
func pickBest(sents []string, ranks []float64, count int) []string {
	order := make([]int, len(sents))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})
	best := order[:min(count, len(order))]
	sort.Ints(best)
	out := make([]string, len(best))
	for i, idx := range best {
		out[i] = sents[idx]
	}
	return out
}
