// Package render formats printable invoice statements.
package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompanyProfile is the letterhead configuration for printed statements.
type CompanyProfile struct {
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	Phone    string `yaml:"phone"`
	Currency string `yaml:"currency"`
	Footer   string `yaml:"footer"`
}

// LoadProfile reads a company profile from a YAML file.
func LoadProfile(path string) (*CompanyProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read company profile: %w", err)
	}

	var profile CompanyProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse company profile: %w", err)
	}
	if profile.Currency == "" {
		profile.Currency = "MMK"
	}
	return &profile, nil
}

// DefaultProfile is used when no profile file is configured.
func DefaultProfile() *CompanyProfile {
	return &CompanyProfile{Currency: "MMK"}
}
