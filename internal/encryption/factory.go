package encryption

import (
	"fmt"

	"tsm-go/internal/config"
	"tsm-go/internal/tsm"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" returns a nil Encryptor: archives are written unencrypted.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (tsm.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, &tsm.ConfigError{Field: "encryption", Reason: "requires public_key_path and private_key_path"}
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
