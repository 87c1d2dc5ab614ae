// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/beckn-mesh/network/beckn"
)

// requireAdminJWT gates the Registry's admin status-transition endpoint
// behind a bearer JWT signed with the configured HMAC secret (the Open
// Question decision recorded in DESIGN.md). Any non-expired token
// verifying against the secret is accepted — the Registry has one admin
// operator, not a role hierarchy.
func requireAdminJWT(secretEnv string, next http.HandlerFunc) (http.HandlerFunc, error) {
	secret := os.Getenv(secretEnv)
	if secret == "" {
		return nil, fmt.Errorf("env var %s is empty", secretEnv)
	}
	key := []byte(secret)

	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "missing bearer token")
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Method)
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !parsed.Valid {
			beckn.WriteNack(w, http.StatusUnauthorized, beckn.ErrorTypeContext, beckn.CodeAuth, "invalid admin token")
			return
		}

		next(w, r)
	}, nil
}
