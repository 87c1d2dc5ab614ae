// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("BECKN_TEST_HOST", "db.prod.internal")

	assert.Equal(t, "db.prod.internal", SubstituteEnvVars("${BECKN_TEST_HOST}"))
	assert.Equal(t, "localhost", SubstituteEnvVars("${BECKN_TEST_MISSING:localhost}"))
	assert.Equal(t, "", SubstituteEnvVars("${BECKN_TEST_MISSING}"))
	assert.Equal(t, "plain", SubstituteEnvVars("plain"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	t.Setenv("BECKN_TEST_SUB_ID", "bap.resolved.org")

	cfg := &Config{
		Identity: &IdentityConfig{SubscriberID: "${BECKN_TEST_SUB_ID}"},
		Database: &DatabaseConfig{Host: "${BECKN_TEST_DB_HOST:localhost}"},
	}

	SubstituteEnvVarsInConfig(cfg)

	assert.Equal(t, "bap.resolved.org", cfg.Identity.SubscriberID)
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("BECKN_ENV", "staging")
	assert.Equal(t, "staging", GetEnvironment())
}

func TestGetEnvironment_FallsBackToGenericVar(t *testing.T) {
	t.Setenv("BECKN_ENV", "")
	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, "production", GetEnvironment())
}

func TestIsProductionIsDevelopment(t *testing.T) {
	t.Setenv("BECKN_ENV", "production")
	assert.True(t, IsProduction())
	assert.False(t, IsDevelopment())

	t.Setenv("BECKN_ENV", "local")
	assert.True(t, IsDevelopment())
}
