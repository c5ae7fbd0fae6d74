// Package branding loads the company identity printed on generated documents.
// It is read once at startup and injected into renderers.
package branding

import (
	"fmt"
	"os"
	"strings"

	"orcamento_backend/platform/config"

	"gopkg.in/yaml.v3"
)

// DefaultCompanyName is used when neither the branding file nor COMPANY_NAME set a name.
const DefaultCompanyName = "Empresa"

// Company describes the issuing business.
type Company struct {
	Name     string `yaml:"name"`
	Document string `yaml:"document"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Address  string `yaml:"address"`
	Website  string `yaml:"website"`
	// LogoPath points to a PNG or JPEG file rendered in the document header.
	LogoPath string `yaml:"logo_path"`
}

// Load reads the branding file named by cfg, if any, and applies fallbacks.
// A missing file path is not an error; an unreadable or malformed file is.
func Load(cfg config.BrandingConfig) (Company, error) {
	var company Company

	if path := strings.TrimSpace(cfg.GetCompanyFile()); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Company{}, fmt.Errorf("read company file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &company); err != nil {
			return Company{}, fmt.Errorf("parse company file: %w", err)
		}
	}

	if strings.TrimSpace(company.Name) == "" {
		company.Name = strings.TrimSpace(cfg.GetCompanyName())
	}
	if company.Name == "" {
		company.Name = DefaultCompanyName
	}

	return company, nil
}
