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
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAdminJWT_RejectsMissingToken(t *testing.T) {
	t.Setenv("BECKN_TEST_ADMIN_SECRET", "s3cr3t")
	called := false
	handler, err := requireAdminJWT("BECKN_TEST_ADMIN_SECRET", func(w http.ResponseWriter, r *http.Request) { called = true })
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAdminJWT_RejectsBadSecret(t *testing.T) {
	t.Setenv("BECKN_TEST_ADMIN_SECRET", "s3cr3t")
	handler, err := requireAdminJWT("BECKN_TEST_ADMIN_SECRET", func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminJWT_AcceptsValidToken(t *testing.T) {
	t.Setenv("BECKN_TEST_ADMIN_SECRET", "s3cr3t")
	called := false
	handler, err := requireAdminJWT("BECKN_TEST_ADMIN_SECRET", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString([]byte("s3cr3t"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAdminJWT_ErrorsOnMissingSecret(t *testing.T) {
	os.Unsetenv("BECKN_TEST_ADMIN_SECRET_UNSET")
	_, err := requireAdminJWT("BECKN_TEST_ADMIN_SECRET_UNSET", func(w http.ResponseWriter, r *http.Request) {})
	assert.Error(t, err)
}
