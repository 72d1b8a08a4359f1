// Package content fetches lab material into the machine. The primary path
// is a shallow sparse git checkout of one subdirectory; when git cannot
// deliver (proxy strips git transport, rate limits), it falls back to the
// forge's release tarball over plain HTTPS.
package content

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'content' action.
type Input struct {
	Repo string `hcl:"repo"`
	Ref  string `hcl:"ref,optional"`
	// Subdir restricts the fetch to one directory of the repository. Empty
	// fetches everything.
	Subdir string `hcl:"subdir,optional"`
	Dest   string `hcl:"dest"`
	// ArchiveURL overrides the tarball fallback location. When empty it is
	// derived from the repo URL, GitHub-style.
	ArchiveURL string `hcl:"archive_url,optional"`
}

func (in *Input) ref() string {
	if in.Ref == "" {
		return "main"
	}
	return in.Ref
}

func (in *Input) archiveURL() string {
	if in.ArchiveURL != "" {
		return in.ArchiveURL
	}
	return strings.TrimSuffix(in.Repo, ".git") + "/archive/" + in.ref() + ".tar.gz"
}

// OnRunContent is the handler for the 'content' action.
func OnRunContent(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx).With("repo", input.Repo)

	if nonEmpty, err := dirNonEmpty(input.Dest); err != nil {
		return err
	} else if nonEmpty {
		logger.Info("⏭️ Content already present, skipping fetch.", "dest", input.Dest)
		return nil
	}
	if err := os.MkdirAll(input.Dest, 0o755); err != nil {
		return fmt.Errorf("content: creating %s: %w", input.Dest, err)
	}

	if err := fetchGit(ctx, host, input); err != nil {
		logger.Warn("Git fetch failed, falling back to archive download.", "error", err)
		if archiveErr := fetchArchive(ctx, host, input); archiveErr != nil {
			return fmt.Errorf("content: git fetch failed (%v); archive fallback failed: %w", err, archiveErr)
		}
	}

	if nonEmpty, err := dirNonEmpty(input.Dest); err != nil {
		return err
	} else if !nonEmpty {
		return fmt.Errorf("content: fetch of %s produced no files under %s", input.Repo, input.Dest)
	}

	logger.Info("📚 Content fetched.", "dest", input.Dest)
	return nil
}

// fetchGit performs a shallow, blobless, sparse clone and copies the wanted
// subtree into dest.
func fetchGit(ctx context.Context, host *registry.Host, input *Input) error {
	tmp, err := os.MkdirTemp("", "content-checkout-*")
	if err != nil {
		return fmt.Errorf("creating checkout dir: %w", err)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	res, err := host.Exec.Run(ctx, "git", "clone", "--depth", "1", "--filter=blob:none",
		"--sparse", "--branch", input.ref(), input.Repo, tmp)
	if err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git clone exited %d: %s", res.ExitCode, res.Stderr)
	}

	src := tmp
	if input.Subdir != "" {
		res, err := host.Exec.Run(ctx, "git", "-C", tmp, "sparse-checkout", "set", input.Subdir)
		if err != nil {
			return fmt.Errorf("git sparse-checkout: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("git sparse-checkout exited %d: %s", res.ExitCode, res.Stderr)
		}
		src = filepath.Join(tmp, input.Subdir)
	}

	if nonEmpty, err := dirNonEmpty(src); err != nil || !nonEmpty {
		return fmt.Errorf("sparse checkout of %q is empty", input.Subdir)
	}

	res, err = host.Exec.Run(ctx, "cp", "-a", src+"/.", input.Dest)
	if err != nil {
		return fmt.Errorf("copying checkout: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("cp exited %d: %s", res.ExitCode, res.Stderr)
	}
	return nil
}

// fetchArchive downloads the repository tarball and extracts the wanted
// subtree into dest. The client on Host already retries transport errors.
func fetchArchive(ctx context.Context, host *registry.Host, input *Input) error {
	url := input.archiveURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := host.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	return extractTarGz(resp.Body, input.Subdir, input.Dest)
}

// extractTarGz unpacks a forge tarball into dest, keeping only entries
// under subdir. The tarball's single top-level directory
// ("<repo>-<ref>/") is stripped.
func extractTarGz(r io.Reader, subdir, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		parts := strings.SplitN(hdr.Name, "/", 2)
		if len(parts) < 2 || parts[1] == "" {
			continue
		}
		rel := parts[1]
		if subdir != "" {
			if !strings.HasPrefix(rel, subdir+"/") {
				continue
			}
			rel = strings.TrimPrefix(rel, subdir+"/")
			if rel == "" {
				continue
			}
		}
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
		// Symlinks and special files in lab content are ignored.
	}
}

// dirNonEmpty reports whether path exists and contains at least one entry.
func dirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("content: reading %s: %w", path, err)
	}
	return len(entries) > 0, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("content", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunContent(ctx, host, input.(*Input))
		},
	})
}
