package harness

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/upb/spt-policy-engineer/services"
)

// CaseFile is the on-disk list of requirements for a batch. JSON files are
// read through the same decoder.
type CaseFile struct {
	Cases []string `yaml:"cases" json:"cases"`
}

// LoadCases reads requirement texts from a YAML or JSON case file. Blank
// entries are dropped; a file with no cases is rejected.
func LoadCases(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeConfig, "read case file", err).
			WithDetail("path", path)
	}

	var file CaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeConfig, "parse case file", err).
			WithDetail("path", path)
	}

	cases := make([]string, 0, len(file.Cases))
	for _, c := range file.Cases {
		if c = strings.TrimSpace(c); c != "" {
			cases = append(cases, c)
		}
	}
	if len(cases) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "case file contains no requirements", nil).
			WithDetail("path", path)
	}
	return cases, nil
}
