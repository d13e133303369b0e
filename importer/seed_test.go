package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/gkentei/models"
)

const yamlSeed = `
categories:
  - name: CNN
    topic: Deep Learning
    description: Convolutional networks
questions:
  - category: CNN
    question: What does a pooling layer do?
    options: [Downsamples, Adds parameters, Normalises, Drops units]
    correct_answer: 0
    explanation: Pooling reduces spatial size.
  - category: Law and Ethics
    question: Which law governs personal data in Japan?
    options: [APPI, GDPR, CCPA, HIPAA]
    correct_answer: 0
`

const jsonSeed = `{
  "questions": [
    {"category": "RNN", "question": "What problem does LSTM address?",
     "options": ["Vanishing gradients", "Overfitting", "Class imbalance", "Label noise"],
     "correctAnswer": 0}
  ]
}`

func TestParseYAML(t *testing.T) {
	seed, err := Parse(strings.NewReader(yamlSeed), YAML)
	require.NoError(t, err)

	require.Len(t, seed.Categories, 1)
	assert.Equal(t, "Deep Learning", seed.Categories[0].Topic)
	require.Len(t, seed.Questions, 2)
	assert.Equal(t, "Pooling reduces spatial size.", seed.Questions[0].Explanation)
	assert.Equal(t, []string{"APPI", "GDPR", "CCPA", "HIPAA"}, seed.Questions[1].Options)
}

func TestParseJSON(t *testing.T) {
	seed, err := Parse(strings.NewReader(jsonSeed), JSON)
	require.NoError(t, err)
	require.Len(t, seed.Questions, 1)
	assert.Equal(t, "RNN", seed.Questions[0].Category)
}

func TestParseRejectsUnknownYAMLFields(t *testing.T) {
	_, err := Parse(strings.NewReader("questions:\n  - categroy: CNN\n"), YAML)
	assert.Error(t, err)
}

func TestValidateReportsEveryFailure(t *testing.T) {
	seed := &Seed{
		Categories: []models.CategoryInput{{Name: ""}},
		Questions: []models.QuestionInput{
			{Category: "CNN", Question: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
			{Category: "CNN", Question: "q2", Options: []string{"a", "b"}, CorrectAnswer: 0},
			{Category: "", Question: "q3", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 9},
			{Category: "CNN", Question: " q1 ", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
		},
	}

	err := seed.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), "category 0")
	assert.Contains(t, err.Error(), "question 1")
	assert.Contains(t, err.Error(), "question 2")
	assert.Contains(t, err.Error(), "question 3: duplicate of question 0")
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]Format{"a.json": JSON, "b.YAML": YAML, "c.yml": YAML} {
		got, err := FormatFor(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatFor("seed.csv")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSeed), 0o600))

	seed, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, seed.Questions, 2)
}

type memSink struct {
	categories map[string]models.CategoryInput
	questions  []models.QuestionInput
	fail       bool
}

func (m *memSink) UpsertCategory(_ context.Context, in models.CategoryInput) (models.Category, error) {
	m.categories[in.Name] = in
	return models.Category{Name: in.Name}, nil
}

func (m *memSink) UpsertQuestion(_ context.Context, in models.QuestionInput) (models.Question, error) {
	if m.fail {
		return models.Question{}, errors.New("constraint violation")
	}
	m.questions = append(m.questions, in)
	return models.Question{Category: in.Category, Question: in.Question}, nil
}

func TestApply(t *testing.T) {
	seed, err := Parse(strings.NewReader(yamlSeed), YAML)
	require.NoError(t, err)

	sink := &memSink{categories: make(map[string]models.CategoryInput)}
	stats, err := Apply(context.Background(), sink, seed, "seed.yaml")
	require.NoError(t, err)

	assert.Equal(t, Stats{Categories: 2, Questions: 2}, stats)
	assert.Contains(t, sink.categories, "Law and Ethics")
	assert.Equal(t, "Deep Learning", sink.categories["CNN"].Topic)
	assert.Equal(t, "seed.yaml", sink.questions[0].Source)
}

func TestApplyStopsOnError(t *testing.T) {
	seed, err := Parse(strings.NewReader(jsonSeed), JSON)
	require.NoError(t, err)

	sink := &memSink{categories: make(map[string]models.CategoryInput), fail: true}
	_, err = Apply(context.Background(), sink, seed, "seed.json")
	assert.ErrorContains(t, err, "constraint violation")
}
