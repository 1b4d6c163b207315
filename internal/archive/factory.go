package archive

import (
	"context"
	"fmt"

	"tsm-go/internal/config"
	"tsm-go/internal/tsm"
)

// NewStoreFromConfig creates an ArchiveStore based on the store config
// type. fsmgr and enc are only used by stores that build their own
// tarballs (filesystem and s3); tarsnap encrypts on its own.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, fsmgr tsm.FilesystemManager, enc tsm.Encryptor, logger tsm.Logger) (tsm.ArchiveStore, error) {
	switch cfg.Type {
	case "tarsnap", "":
		if cfg.KeyFile == "" {
			return nil, &tsm.ConfigError{Field: "key_file", Reason: "must be specified for the tarsnap store"}
		}
		cacheDir := cfg.CacheDir
		if cacheDir == "" {
			cacheDir = config.DefaultCacheDir
		}
		return NewTarsnapStore(cfg.TarsnapPath, cfg.KeyFile, cacheDir, nil, logger), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, &tsm.ConfigError{Field: "fs_root", Reason: "must be specified for the filesystem store"}
		}
		return NewFileSystemStore(cfg.FSRoot, fsmgr, enc)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, &tsm.ConfigError{Field: "s3_bucket", Reason: "must be specified for the s3 store"}
		}
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix, fsmgr, enc, logger), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
