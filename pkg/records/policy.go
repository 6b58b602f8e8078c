package records

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const defaultSSNPattern = `^\d{3}-\d{2}-\d{4}$`

// Policy holds the record validation rules. The SSN pattern is the only
// rule today; it ships with a built-in default and can be overridden from
// a YAML file.
type Policy struct {
	ssn *regexp.Regexp
}

type policyFile struct {
	SSNPattern string `yaml:"ssn_pattern" json:"ssn_pattern"`
}

func DefaultPolicy() Policy {
	return Policy{ssn: regexp.MustCompile(defaultSSNPattern)}
}

func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultPolicy(), err
	}

	var file policyFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return Policy{}, err
	}
	if file.SSNPattern == "" {
		return Policy{}, fmt.Errorf("record policy missing ssn_pattern")
	}

	re, err := regexp.Compile(file.SSNPattern)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid ssn_pattern: %w", err)
	}
	return Policy{ssn: re}, nil
}

func (p Policy) ValidSSN(ssn string) bool {
	if p.ssn == nil {
		p = DefaultPolicy()
	}
	return p.ssn.MatchString(ssn)
}
