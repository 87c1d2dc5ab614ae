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
	"fmt"
	"time"
)

// Pinger is satisfied by any dependency client that can report liveness.
type Pinger func(ctx context.Context) error

// Dependency names a Pinger for inclusion in Checker.CheckAll.
type Dependency struct {
	Name     string
	Ping     Pinger
	Critical bool // if true, failure marks readiness as not-ready
}

// Checker performs health checks across the dependencies a service was
// configured with (Registry checks DB+Redis, Gateway additionally checks
// the broker).
type Checker struct {
	deps []Dependency
}

// NewChecker creates a new health checker over the given dependencies.
func NewChecker(deps ...Dependency) *Checker {
	return &Checker{deps: deps}
}

// CheckAll performs all health checks.
func (c *Checker) CheckAll() *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Errors:    make([]string, 0),
	}

	for _, dep := range c.deps {
		status.Dependencies = append(status.Dependencies, c.checkOne(dep))
	}

	for _, dh := range status.Dependencies {
		if dh.Status == StatusUnhealthy {
			if dh.Critical || status.Status != StatusUnhealthy {
				status.Status = StatusUnhealthy
			}
			if dh.Error != "" {
				status.Errors = append(status.Errors, dh.Name+": "+dh.Error)
			}
		} else if dh.Status == StatusDegraded && status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	status.SystemStatus = CheckSystem()
	if status.SystemStatus.Status != StatusHealthy {
		if status.Status == StatusHealthy {
			status.Status = status.SystemStatus.Status
		} else if status.SystemStatus.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
		if status.SystemStatus.Error != "" {
			status.Errors = append(status.Errors, "system: "+status.SystemStatus.Error)
		}
	}

	return status
}

// IsReady reports whether every critical dependency is connected.
func (s *HealthStatus) IsReady() bool {
	for _, dh := range s.Dependencies {
		if dh.Critical && !dh.Connected {
			return false
		}
	}
	return true
}

func (c *Checker) checkOne(dep Dependency) *DependencyHealth {
	dh := &DependencyHealth{Name: dep.Name, Critical: dep.Critical, Status: StatusUnhealthy}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := dep.Ping(ctx)
	latency := time.Since(start)
	dh.Latency = latency.String()

	if err != nil {
		dh.Error = fmt.Sprintf("ping failed: %v", err)
		return dh
	}

	dh.Connected = true
	switch {
	case latency < 250*time.Millisecond:
		dh.Status = StatusHealthy
	case latency < time.Second:
		dh.Status = StatusDegraded
	default:
		dh.Status = StatusUnhealthy
		dh.Error = fmt.Sprintf("high latency: %v", latency)
	}

	return dh
}
