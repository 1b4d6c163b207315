package encryption

import (
	"fmt"
	"io"

	"tsm-go/internal/tsm"
)

// TestHeader is prepended by TestEncryptor so tests can tell "encrypted"
// archives from plain ones without real keys.
var TestHeader = []byte("TSMENC\x00\x00")

// TestEncryptor is a deterministic stand-in for AgeEncryptor. It prepends
// TestHeader and copies the plaintext unchanged.
type TestEncryptor struct {
	setupCalled bool
}

var _ tsm.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(TestHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}
