package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/pkg/models"
)

func TestClassify_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		a := Classify(text)
		assert.Equal(t, models.ComplexitySimple, a.Complexity)
		assert.Empty(t, a.Domains)
		assert.Empty(t, a.ToolsNeeded)
		assert.Equal(t, 1, a.EstimatedSteps)
		assert.False(t, a.RequiresSpecialization)
		assert.False(t, a.ParallelPotential)
		assert.False(t, a.CollaborationNeeded)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "Research competitors, analyze the sales data, then write a detailed report"
	first := Classify(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(text))
	}
}

func TestClassify_SimpleArithmetic(t *testing.T) {
	a := Classify("What is 2+2")

	assert.Equal(t, models.ComplexitySimple, a.Complexity)
	assert.LessOrEqual(t, len(a.Domains), 1)
	assert.Equal(t, []string{DomainMath}, a.Domains)
	assert.Equal(t, models.ApproachSingle, Recommend(a))
}

func TestClassify_MultiDomainCoordination(t *testing.T) {
	a := Classify("Research competitors, analyze the sales data, write a report and coordinate with the team")

	assert.GreaterOrEqual(t, len(a.Domains), 3)
	assert.True(t, a.CollaborationNeeded)
	assert.Equal(t, models.ApproachCollaborative, Recommend(a))
}

func TestClassify_DomainsFollowTableOrder(t *testing.T) {
	a := Classify("Write a report and research the topic")
	assert.Equal(t, []string{DomainResearch, DomainWriting}, a.Domains)
}

func TestClassify_Approaches(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Approach
	}{
		{
			name: "independent domains run in parallel",
			text: "Research the history of Rome and separately calculate the sum of 3+4",
			want: models.ApproachParallel,
		},
		{
			name: "several domains run sequentially",
			text: "Write a Python script to parse the csv data then summarize the results in a report",
			want: models.ApproachSequential,
		},
		{
			name: "single planning task",
			text: "Plan the trip, then book hotels, then finally pack",
			want: models.ApproachSingle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(Classify(tt.text)))
		})
	}
}

func TestClassify_EstimatedSteps(t *testing.T) {
	a := Classify("Plan the trip, then book hotels, then finally pack")

	assert.Equal(t, []string{DomainPlanning}, a.Domains)
	assert.False(t, a.RequiresSpecialization)
	assert.Equal(t, models.ComplexitySimple, a.Complexity)
	// base 1 + "then" x2 + "finally"
	assert.Equal(t, 4, a.EstimatedSteps)
}

func TestClassify_ToolsSortedAndUnique(t *testing.T) {
	a := Classify("Search the web, calculate the total and compute the average, then email it")

	assert.IsIncreasing(t, a.ToolsNeeded)
	assert.Contains(t, a.ToolsNeeded, "web_search")
	assert.Contains(t, a.ToolsNeeded, "calculator")
	assert.Contains(t, a.ToolsNeeded, "send_message")
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.Complexity
	}{
		{0, models.ComplexitySimple},
		{3, models.ComplexitySimple},
		{4, models.ComplexityModerate},
		{7, models.ComplexityModerate},
		{8, models.ComplexityComplex},
		{12, models.ComplexityComplex},
		{13, models.ComplexityVeryComplex},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.score), "score %d", tt.score)
	}
}

func TestLengthBonus(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0}, {9, 0}, {10, 1}, {19, 1}, {20, 2}, {49, 2}, {50, 3},
	}
	for _, tt := range tests {
		text := ""
		for i := 0; i < tt.words; i++ {
			text += "w "
		}
		assert.Equal(t, tt.want, lengthBonus(text), "%d words", tt.words)
	}
}

func TestClassifier_AddDomainKeywords(t *testing.T) {
	c := New()
	require.NoError(t, c.AddDomainKeywords("legal", "contract", "clause"))
	require.NoError(t, c.AddDomainKeywords(DomainMath, "arithmetic"))
	require.Error(t, c.AddDomainKeywords(""))

	a := c.Classify("review this contract")
	assert.Equal(t, []string{"legal"}, a.Domains)
	assert.False(t, a.RequiresSpecialization)

	assert.Equal(t, []string{DomainMath}, c.Classify("practice arithmetic").Domains)
	assert.Equal(t, "legal", c.Domains()[len(c.Domains())-1])

	// The package default is unaffected.
	assert.Empty(t, Classify("review this contract").Domains)
}

func TestClassifier_Score(t *testing.T) {
	assert.Equal(t, 0, New().Score(""))
	assert.Equal(t, 3, New().Score("What is 2+2"))
}
