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

package crypto

import (
	"crypto/ed25519"
	"errors"
	"sync"
)

// AlgorithmInfo contains metadata about a cryptographic algorithm
type AlgorithmInfo struct {
	KeyType               KeyType
	Name                  string
	Description           string
	RFC9421Algorithm      string
	SupportsRFC9421       bool
	SupportsKeyGeneration bool
	SupportsSignature     bool
	SupportsEncryption    bool
}

var (
	registry                 = make(map[KeyType]*AlgorithmInfo)
	rfc9421ToKeyType         = make(map[string]KeyType)
	registryMutex            sync.RWMutex
	ErrAlgorithmNotSupported = errors.New("algorithm not supported")
	ErrAlgorithmExists       = errors.New("algorithm already registered")
)

// RegisterAlgorithm registers a new algorithm in the registry. Called during
// package initialization by crypto/keys.
func RegisterAlgorithm(info AlgorithmInfo) error {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if info.KeyType == "" {
		return errors.New("key type cannot be empty")
	}

	if _, exists := registry[info.KeyType]; exists {
		return ErrAlgorithmExists
	}

	if info.SupportsRFC9421 && info.RFC9421Algorithm == "" {
		return errors.New("RFC9421Algorithm must be set if SupportsRFC9421 is true")
	}

	registry[info.KeyType] = &info

	if info.SupportsRFC9421 && info.RFC9421Algorithm != "" {
		rfc9421ToKeyType[info.RFC9421Algorithm] = info.KeyType
	}

	return nil
}

// GetAlgorithmInfo returns information about a registered algorithm
func GetAlgorithmInfo(keyType KeyType) (*AlgorithmInfo, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	info, exists := registry[keyType]
	if !exists {
		return nil, ErrAlgorithmNotSupported
	}

	infoCopy := *info
	return &infoCopy, nil
}

// ListSupportedAlgorithms returns a list of all supported algorithms
func ListSupportedAlgorithms() []AlgorithmInfo {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	result := make([]AlgorithmInfo, 0, len(registry))
	for _, info := range registry {
		result = append(result, *info)
	}

	return result
}

// GetRFC9421AlgorithmName returns the RFC 9421 algorithm name for a key type
func GetRFC9421AlgorithmName(keyType KeyType) (string, error) {
	info, err := GetAlgorithmInfo(keyType)
	if err != nil {
		return "", err
	}

	if !info.SupportsRFC9421 {
		return "", errors.New("algorithm does not support RFC 9421")
	}

	return info.RFC9421Algorithm, nil
}

// GetKeyTypeFromRFC9421Algorithm returns the key type for an RFC 9421 algorithm name
func GetKeyTypeFromRFC9421Algorithm(rfc9421Algorithm string) (KeyType, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	keyType, exists := rfc9421ToKeyType[rfc9421Algorithm]
	if !exists {
		return "", ErrAlgorithmNotSupported
	}

	return keyType, nil
}

// SupportsRFC9421 checks if an algorithm supports RFC 9421
func SupportsRFC9421(keyType KeyType) bool {
	info, err := GetAlgorithmInfo(keyType)
	if err != nil {
		return false
	}
	return info.SupportsRFC9421
}

// SupportsKeyGeneration checks if an algorithm supports key generation
func SupportsKeyGeneration(keyType KeyType) bool {
	info, err := GetAlgorithmInfo(keyType)
	if err != nil {
		return false
	}
	return info.SupportsKeyGeneration
}

// SupportsSignature checks if an algorithm supports digital signatures
func SupportsSignature(keyType KeyType) bool {
	info, err := GetAlgorithmInfo(keyType)
	if err != nil {
		return false
	}
	return info.SupportsSignature
}

// IsAlgorithmSupported checks if an algorithm is registered
func IsAlgorithmSupported(keyType KeyType) bool {
	_, err := GetAlgorithmInfo(keyType)
	return err == nil
}

// GetKeyTypeFromPublicKey maps a Go crypto.PublicKey to our KeyType.
func GetKeyTypeFromPublicKey(publicKey interface{}) (KeyType, error) {
	switch publicKey.(type) {
	case ed25519.PublicKey:
		return KeyTypeEd25519, nil
	default:
		return "", errors.New("unsupported public key type")
	}
}

// ValidateAlgorithmForPublicKey validates that an RFC 9421 algorithm is
// compatible with a public key. Returns nil if valid.
func ValidateAlgorithmForPublicKey(publicKey interface{}, algorithm string) error {
	if algorithm == "" {
		return nil
	}

	keyType, err := GetKeyTypeFromRFC9421Algorithm(algorithm)
	if err != nil {
		return err
	}

	expectedKeyType, err := GetKeyTypeFromPublicKey(publicKey)
	if err != nil {
		return err
	}

	if keyType != expectedKeyType {
		return errors.New("algorithm mismatch: key type is " + string(expectedKeyType) + " but algorithm is " + algorithm)
	}

	return nil
}
