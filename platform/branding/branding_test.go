package branding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	file string
	name string
}

func (s stubConfig) GetCompanyFile() string { return s.file }
func (s stubConfig) GetCompanyName() string { return s.name }

func TestLoadFallsBackToPlaceholder(t *testing.T) {
	company, err := Load(stubConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCompanyName, company.Name)
}

func TestLoadUsesEnvName(t *testing.T) {
	company, err := Load(stubConfig{name: "Serralheria Silva"})
	require.NoError(t, err)
	assert.Equal(t, "Serralheria Silva", company.Name)
}

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company.yaml")
	content := "name: Vidraçaria Central\ndocument: 12.345.678/0001-90\nphone: \"+55 11 3333-4444\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	company, err := Load(stubConfig{file: path, name: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Vidraçaria Central", company.Name)
	assert.Equal(t, "12.345.678/0001-90", company.Document)
	assert.Equal(t, "+55 11 3333-4444", company.Phone)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(stubConfig{file: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
