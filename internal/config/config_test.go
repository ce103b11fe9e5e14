package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			name: "Production with default JWT secret",
			cfg: Config{
				Env:        "production",
				Port:       "8290",
				JWTSecret:  "your-secret-key-change-in-production",
				DBPassword: "secure-password",
			},
			expectError: true,
		},
		{
			name: "Production with short JWT secret",
			cfg: Config{
				Env:        "production",
				Port:       "8290",
				JWTSecret:  "short",
				DBPassword: "secure-password",
			},
			expectError: true,
		},
		{
			name: "Production with weak DB password",
			cfg: Config{
				Env:        "production",
				Port:       "8290",
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "password",
			},
			expectError: true,
		},
		{
			name: "Production with valid settings",
			cfg: Config{
				Env:        "production",
				Port:       "8290",
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				DBSSLMode:  "require",
			},
			expectError: false,
		},
		{
			name: "Development with defaults",
			cfg: Config{
				Env:        "development",
				Port:       "8290",
				JWTSecret:  "your-secret-key-change-in-production",
				DBPassword: "password",
			},
			expectError: false,
		},
		{
			name:        "Missing port",
			cfg:         Config{JWTSecret: "x"},
			expectError: true,
		},
		{
			name:        "Missing JWT secret",
			cfg:         Config{Port: "8290"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
