package rules

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// RuleInfo is descriptive metadata for one rule, shown in the rule picker.
// Thresholds live in the evaluators, not here.
type RuleInfo struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Jurisdiction string `yaml:"jurisdiction" json:"jurisdiction"`
	Category     string `yaml:"category" json:"category"`
	Period       string `yaml:"period" json:"period"`
	Description  string `yaml:"description" json:"description"`
}

type catalogFile struct {
	Rules []RuleInfo `yaml:"rules"`
}

var (
	catalogOnce  sync.Once
	catalogRules []RuleInfo
	catalogErr   error
)

// Catalog returns the embedded rule catalog.
func Catalog() ([]RuleInfo, error) {
	catalogOnce.Do(func() {
		var f catalogFile
		if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
			catalogErr = fmt.Errorf("failed to parse rule catalog: %w", err)
			return
		}
		catalogRules = f.Rules
	})
	return catalogRules, catalogErr
}
