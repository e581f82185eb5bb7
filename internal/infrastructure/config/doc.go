// Package config handles loading and validating Vesta Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (VESTA_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - With an empty security.jwt.secret the HTTP API accepts unauthenticated commands
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Transport)
package config
