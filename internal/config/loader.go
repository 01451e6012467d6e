package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ticketbot/pkg"
)

// QuestionsFile represents the structure of the questions override file
type QuestionsFile struct {
	Questions map[string][]string `yaml:"questions"`
}

// LoadQuestions loads per-role question sets from a YAML file. Roles the
// file leaves out keep their built-in questions.
func LoadQuestions(filepath string) (map[pkg.RoleType][]string, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading questions file: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes and validates a questions document
func ParseQuestions(data []byte) (map[pkg.RoleType][]string, error) {
	var file QuestionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	out := make(map[pkg.RoleType][]string, len(file.Questions))
	for name, questions := range file.Questions {
		rt := pkg.RoleType(name)
		if !rt.Valid() {
			return nil, fmt.Errorf("unknown role type %q in questions file", name)
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("role type %q has no questions", name)
		}
		for i, q := range questions {
			if q == "" {
				return nil, fmt.Errorf("role type %q: question %d is empty", name, i+1)
			}
		}
		out[rt] = questions
	}
	return out, nil
}
