// internal/workers/catalog/select-loan-product/config.go
package selectloanproduct

import "loan-desk/internal/common/config"

type Config struct {
	// Files maps loan type to its catalog table.
	Files map[string]string
}

func LoadConfig(cat config.CatalogConfig) *Config {
	return &Config{Files: cat.Files()}
}
