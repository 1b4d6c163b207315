package tsm

import "io"

// Encryptor encrypts archive streams before they leave the host.
// Only the public key is needed to encrypt; the private key stays
// passphrase-protected on disk and is only needed for restores.
type Encryptor interface {
	// Setup generates a key pair, writes the public key in plaintext and the
	// private key encrypted with passphrase. Called by `tsm keys init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// IsConfigured reports whether the key files exist.
	IsConfigured() bool
}
