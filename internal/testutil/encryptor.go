package testutil

import (
	"tsm-go/internal/encryption"
	"tsm-go/internal/tsm"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() tsm.Encryptor {
	return encryption.NewTestEncryptor()
}
