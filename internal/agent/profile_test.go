package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/tandem/internal/classifier"
)

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		require.NoError(t, p.Validate(), p.Name)
		assert.False(t, p.IsGeneralist())
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"researcher", "coder", "analyst", "writer", "web", "files"}, names)

	covered := map[string]bool{}
	for _, p := range profiles {
		for _, d := range p.Domains {
			covered[d] = true
		}
	}
	for _, d := range classifier.New().Domains() {
		if d == classifier.DomainPlanning {
			continue
		}
		assert.True(t, covered[d], "no profile for domain %s", d)
	}

	g := DefaultGeneralist()
	require.NoError(t, g.Validate())
	assert.True(t, g.IsGeneralist())
	assert.Equal(t, GeneralistName, g.Name)
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{name: "ok", profile: Profile{Name: "a", Domains: []string{"web"}}},
		{name: "missing name", profile: Profile{Domains: []string{"web"}}, wantErr: true},
		{name: "specialist without domains", profile: Profile{Name: "a"}, wantErr: true},
		{name: "generalist without domains", profile: Profile{Name: "g", Kind: KindGeneralist}},
		{name: "unknown kind", profile: Profile{Name: "a", Kind: "robot", Domains: []string{"web"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidProfile))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseProfiles(t *testing.T) {
	doc := []byte(`
workers:
  - name: scout
    domains: [research, web]
    tools: [web_search]
    model: claude-3-5-haiku-20241022
  - name: scribe
    kind: specialist
    domains: [writing]
generalist:
  system_prompt: do anything
`)
	workers, generalist, err := ParseProfiles(doc)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "scout", workers[0].Name)
	assert.Equal(t, KindSpecialist, workers[0].Kind)
	assert.True(t, workers[0].Handles("web"))
	assert.False(t, workers[0].Handles("coding"))
	assert.Equal(t, "claude-3-5-haiku-20241022", workers[0].Model)

	assert.Equal(t, GeneralistName, generalist.Name)
	assert.Equal(t, KindGeneralist, generalist.Kind)
	assert.Equal(t, "do anything", generalist.SystemPrompt)
}

func TestParseProfiles_DefaultGeneralist(t *testing.T) {
	_, generalist, err := ParseProfiles([]byte("workers: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultGeneralist(), generalist)
}

func TestParseProfiles_Duplicate(t *testing.T) {
	_, _, err := ParseProfiles([]byte(`
workers:
  - {name: a, domains: [web]}
  - {name: a, domains: [coding]}
`))
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestLoadProfiles_RoundTrip(t *testing.T) {
	data, err := MarshalProfiles(DefaultProfiles(), DefaultGeneralist())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "workers.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))

	workers, generalist, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfiles(), workers)
	assert.Equal(t, DefaultGeneralist(), generalist)
}

func TestLoadProfiles_Missing(t *testing.T) {
	_, _, err := LoadProfiles(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
