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

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerCheckAll_AllHealthy(t *testing.T) {
	checker := NewChecker(
		Dependency{Name: "postgres", Critical: true, Ping: func(ctx context.Context) error { return nil }},
		Dependency{Name: "redis", Critical: true, Ping: func(ctx context.Context) error { return nil }},
	)

	status := checker.CheckAll()
	assert.Equal(t, StatusHealthy, status.Status)
	assert.True(t, status.IsReady())
	assert.Len(t, status.Dependencies, 2)
}

func TestCheckerCheckAll_CriticalDependencyDown(t *testing.T) {
	checker := NewChecker(
		Dependency{Name: "postgres", Critical: true, Ping: func(ctx context.Context) error {
			return errors.New("connection refused")
		}},
		Dependency{Name: "redis", Critical: true, Ping: func(ctx context.Context) error { return nil }},
	)

	status := checker.CheckAll()
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.False(t, status.IsReady())
	assert.Contains(t, status.Errors[0], "postgres")
}

func TestCheckerCheckAll_NonCriticalDependencyDown(t *testing.T) {
	checker := NewChecker(
		Dependency{Name: "postgres", Critical: true, Ping: func(ctx context.Context) error { return nil }},
		Dependency{Name: "broker", Critical: false, Ping: func(ctx context.Context) error {
			return errors.New("no route to host")
		}},
	)

	status := checker.CheckAll()
	assert.True(t, status.IsReady(), "non-critical dependency failures should not block readiness")
	assert.Equal(t, StatusUnhealthy, status.Status, "overall status still reflects the failure")
}
