package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/tandem/pkg/models"
)

func TestSelectModel_Hints(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"fix a typo in the README", ModelHaiku},
		{"Quick summary of the news", ModelHaiku},
		{"write an in-depth review of the storage architecture", ModelOpus},
		{"quick in-depth look", ModelHaiku},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectModel(tt.description, "fallback"))
		})
	}
}

func TestSelectModel_EmptyTextIsSimple(t *testing.T) {
	assert.Equal(t, ModelHaiku, SelectModel("", "fallback"))
}

func TestModelFor(t *testing.T) {
	tests := []struct {
		c    models.Complexity
		want string
	}{
		{models.ComplexitySimple, ModelHaiku},
		{models.ComplexityModerate, "fallback"},
		{models.ComplexityComplex, ModelOpus},
		{models.ComplexityVeryComplex, ModelOpus},
	}

	for _, tt := range tests {
		t.Run(tt.c.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, modelFor(tt.c, "fallback"))
		})
	}
}
