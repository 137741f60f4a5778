package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pico/internal/core/domain"
)

func TestConfig_Matches(t *testing.T) {
	cfg := &domain.Config{Include: domain.DefaultInclude()}

	tests := []struct {
		path string
		want bool
	}{
		{"schema.graphql", true},
		{filepath.Join("api", "ops.gql"), true},
		{"README.md", false},
		{"schema.graphql.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Matches(tt.path))
		})
	}
}

func TestConfig_Matches_BadPattern(t *testing.T) {
	cfg := &domain.Config{Include: []string{"[", "*.graphql"}}
	assert.True(t, cfg.Matches("a.graphql"))
	assert.False(t, cfg.Matches("a.gql"))
}

func TestConfig_Rel(t *testing.T) {
	root := t.TempDir()
	cfg := &domain.Config{Root: root}

	assert.Equal(t, "api/ops.graphql", cfg.Rel(filepath.Join(root, "api", "ops.graphql")))
	assert.Equal(t, "schema.graphql", cfg.Rel(filepath.Join(root, "schema.graphql")))
}
