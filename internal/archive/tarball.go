package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tsm-go/internal/tsm"
)

// WriteTarball writes a tar stream of paths to w. Directories are expanded
// recursively through fsmgr, so ignore rules apply. Entry names are the
// absolute paths with the leading slash removed, as tar(1) stores them.
func WriteTarball(ctx context.Context, fsmgr tsm.FilesystemManager, paths []string, w io.Writer) error {
	tw := tar.NewWriter(w)

	for _, raw := range paths {
		root, err := fsmgr.Resolve(raw)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", raw, err)
		}

		files := []*tsm.Path{root}
		if root.IsDir() {
			files, err = fsmgr.FindFiles(root, true)
			if err != nil {
				return fmt.Errorf("listing %s: %w", root, err)
			}
		}

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := addFile(tw, fsmgr, f); err != nil {
				return err
			}
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tarball: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, fsmgr tsm.FilesystemManager, p *tsm.Path) error {
	hdr, err := tar.FileInfoHeader(p.Info(), "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", p, err)
	}
	hdr.Name = entryName(p.String())

	r, err := fsmgr.Open(p)
	if err != nil {
		return fmt.Errorf("opening %s: %w", p, err)
	}
	defer r.Close()

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header for %s: %w", p, err)
	}
	// The size in the header was captured at resolve time; a file that
	// grew since then is truncated to it.
	if _, err := io.CopyN(tw, r, hdr.Size); err != nil {
		return fmt.Errorf("archiving %s: %w", p, err)
	}
	return nil
}

func entryName(absPath string) string {
	name := filepath.ToSlash(absPath)
	if vol := filepath.VolumeName(absPath); vol != "" {
		name = strings.TrimPrefix(name, filepath.ToSlash(vol))
	}
	return strings.TrimPrefix(name, "/")
}

// writeArchive writes the tarball of paths to w, passing it through enc
// when one is configured.
func writeArchive(ctx context.Context, fsmgr tsm.FilesystemManager, enc tsm.Encryptor, paths []string, w io.Writer) error {
	if enc == nil {
		return WriteTarball(ctx, fsmgr, paths, w)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(WriteTarball(ctx, fsmgr, paths, pw))
	}()

	err := enc.Encrypt(pr, w)
	// Unblocks the tar writer if Encrypt stopped reading early.
	pr.CloseWithError(err)
	if err != nil {
		return fmt.Errorf("encrypting archive: %w", err)
	}
	return nil
}
