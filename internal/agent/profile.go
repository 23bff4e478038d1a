package agent

import (
	"fmt"
	"os"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/tandem/internal/classifier"
)

// GeneralistName is the pool slot of the catch-all worker.
const GeneralistName = "generalist"

// Profile describes how to build one worker.
type Profile struct {
	Name string `yaml:"name"`
	// Kind is "specialist" or "generalist". Empty means specialist.
	Kind string `yaml:"kind,omitempty"`
	// Domains are the classifier domains this worker claims.
	Domains      []string `yaml:"domains,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty"`
	// Tools are registry names the worker may call.
	Tools []string `yaml:"tools,omitempty"`
	// Model overrides the client's default model.
	Model string `yaml:"model,omitempty"`
}

// IsGeneralist reports whether the profile builds the catch-all worker.
func (p Profile) IsGeneralist() bool {
	return p.Kind == KindGeneralist
}

// Validate checks that the profile is well formed.
func (p Profile) Validate() error {
	if p.Name == "" {
		return goerr.Wrap(ErrInvalidProfile, "name is required")
	}
	switch p.Kind {
	case "", KindSpecialist, KindGeneralist:
	default:
		return goerr.Wrap(ErrInvalidProfile, "unknown kind", goerr.V("name", p.Name), goerr.V("kind", p.Kind))
	}
	if p.Kind != KindGeneralist && len(p.Domains) == 0 {
		return goerr.Wrap(ErrInvalidProfile, "specialist needs at least one domain", goerr.V("name", p.Name))
	}
	return nil
}

// Handles reports whether the worker claims domain.
func (p Profile) Handles(domain string) bool {
	return slices.Contains(p.Domains, domain)
}

// profileFile is the on-disk layout of a workers file.
type profileFile struct {
	Workers    []Profile `yaml:"workers"`
	Generalist *Profile  `yaml:"generalist,omitempty"`
}

// LoadProfiles reads specialist profiles and an optional generalist override
// from a YAML file. A missing generalist section yields DefaultGeneralist.
func LoadProfiles(path string) ([]Profile, Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Profile{}, fmt.Errorf("reading workers file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes a workers document.
func ParseProfiles(data []byte) ([]Profile, Profile, error) {
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, Profile{}, fmt.Errorf("parsing workers file: %w", err)
	}

	seen := make(map[string]bool, len(pf.Workers))
	for i := range pf.Workers {
		if pf.Workers[i].Kind == "" {
			pf.Workers[i].Kind = KindSpecialist
		}
		if seen[pf.Workers[i].Name] {
			return nil, Profile{}, goerr.Wrap(ErrInvalidProfile, "duplicate worker name", goerr.V("name", pf.Workers[i].Name))
		}
		seen[pf.Workers[i].Name] = true
	}

	generalist := DefaultGeneralist()
	if pf.Generalist != nil {
		generalist = *pf.Generalist
		generalist.Kind = KindGeneralist
		if generalist.Name == "" {
			generalist.Name = GeneralistName
		}
	}
	return pf.Workers, generalist, nil
}

// MarshalProfiles renders profiles in the workers file format.
func MarshalProfiles(workers []Profile, generalist Profile) ([]byte, error) {
	return yaml.Marshal(profileFile{Workers: workers, Generalist: &generalist})
}

// DefaultProfiles returns the built-in specialists, one per specialist
// domain group, in registration order.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:         "researcher",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainResearch},
			SystemPrompt: "You research topics thoroughly and report findings with sources.",
			Tools:        []string{"web_search", "web_fetch", "file_read"},
		},
		{
			Name:         "coder",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainCoding},
			SystemPrompt: "You write, review and debug code. Prefer small, tested changes.",
			Tools:        []string{"file_read", "file_write", "file_search", "content_search", "shell"},
		},
		{
			Name:         "analyst",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainDataAnalysis, classifier.DomainMath},
			SystemPrompt: "You analyze data and compute results precisely. Show your working.",
			Tools:        []string{"calculator", "file_read", "shell"},
		},
		{
			Name:         "writer",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainWriting, classifier.DomainCommunication},
			SystemPrompt: "You write clear, well-structured prose for the requested audience.",
			Tools:        []string{"file_read", "file_write"},
		},
		{
			Name:         "web",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainWeb},
			SystemPrompt: "You work with websites and HTTP APIs.",
			Tools:        []string{"web_fetch", "http_request", "web_search"},
		},
		{
			Name:         "files",
			Kind:         KindSpecialist,
			Domains:      []string{classifier.DomainFileManagement},
			SystemPrompt: "You organize, inspect and transform files on disk.",
			Tools:        []string{"list_dir", "file_read", "file_write", "file_search"},
		},
	}
}

// DefaultGeneralist returns the built-in catch-all profile.
func DefaultGeneralist() Profile {
	return Profile{
		Name:         GeneralistName,
		Kind:         KindGeneralist,
		SystemPrompt: "You are a capable generalist. Break the task into steps and complete each one.",
	}
}
