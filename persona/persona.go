// Package persona loads the debaters: who they are and how they speak.
package persona

import (
	"debate-lab/domain"
	"debate-lab/errors"
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonas []byte

var validate = validator.New()

type Persona struct {
	Identity      domain.Identity `yaml:"identity" validate:"required,ne=User,excludesall= :"`
	Description   string          `yaml:"description"`
	SystemMessage string          `yaml:"system_message" validate:"required"`
}

type file struct {
	Personas []Persona `yaml:"personas" validate:"required,min=1,dive"`
}

// Default returns the three debaters shipped with the binary.
func Default() ([]Persona, error) {
	return Parse(defaultPersonas)
}

// Load reads personas from path, or the defaults when path is empty.
func Load(path string) ([]Persona, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Persona, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidPersona, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidPersona, err)
	}
	dups := lo.FindDuplicates(Identities(f.Personas))
	if len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate identities %v", errors.ErrInvalidPersona, dups)
	}
	return f.Personas, nil
}

func Identities(personas []Persona) []domain.Identity {
	return lo.Map(personas, func(p Persona, _ int) domain.Identity { return p.Identity })
}
