package persona

import (
	"debate-lab/domain"
	"debate-lab/errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_Ships_Three_Debaters(t *testing.T) {
	req := require.New(t)

	personas, err := Default()

	req.NoError(err)
	req.Equal([]domain.Identity{"Trump", "Biden", "Obama"}, Identities(personas))
	req.Contains(personas[0].SystemMessage, "believe me")
}

func TestLoad_Reads_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "personas.yaml")
	req.NoError(os.WriteFile(path, []byte(`
personas:
  - identity: Alice
    system_message: You are Alice.
`), 0o600))

	personas, err := Load(path)

	req.NoError(err)
	req.Len(personas, 1)
	req.Equal(domain.Identity("Alice"), personas[0].Identity)
}

func TestParse_Rejects_Invalid_Personas(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "personas: [::"},
		{"empty", "personas: []"},
		{"missing prompt", "personas:\n  - identity: Alice\n"},
		{"reserved identity", "personas:\n  - identity: User\n    system_message: hi\n"},
		{"identity with space", "personas:\n  - identity: Mr Smith\n    system_message: hi\n"},
		{"duplicates", "personas:\n  - identity: A\n    system_message: hi\n  - identity: A\n    system_message: ho\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, errors.ErrInvalidPersona)
		})
	}
}
