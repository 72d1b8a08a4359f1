package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/testutil"
)

// tarball builds a gzipped tar with the given name → content entries.
func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestArchiveURL(t *testing.T) {
	in := &Input{Repo: "https://github.com/oracle/genai-labs.git"}
	assert.Equal(t, "https://github.com/oracle/genai-labs/archive/main.tar.gz", in.archiveURL())

	in.Ref = "v2"
	assert.Equal(t, "https://github.com/oracle/genai-labs/archive/v2.tar.gz", in.archiveURL())

	in.ArchiveURL = "https://mirror.example/labs.tar.gz"
	assert.Equal(t, "https://mirror.example/labs.tar.gz", in.archiveURL())
}

func TestExtractTarGz(t *testing.T) {
	raw := tarball(t, map[string]string{
		"genai-labs-main/labs/rag/notebook.ipynb": "cells",
		"genai-labs-main/labs/rag/data/docs.txt":  "corpus",
		"genai-labs-main/README.md":               "top-level, outside subdir",
	})

	t.Run("keeps only the subdir, prefix stripped", func(t *testing.T) {
		dest := t.TempDir()
		require.NoError(t, extractTarGz(bytes.NewReader(raw), "labs/rag", dest))

		got, err := os.ReadFile(filepath.Join(dest, "notebook.ipynb"))
		require.NoError(t, err)
		assert.Equal(t, "cells", string(got))

		_, err = os.Stat(filepath.Join(dest, "data", "docs.txt"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dest, "README.md"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("empty subdir takes everything", func(t *testing.T) {
		dest := t.TempDir()
		require.NoError(t, extractTarGz(bytes.NewReader(raw), "", dest))
		_, err := os.Stat(filepath.Join(dest, "README.md"))
		assert.NoError(t, err)
	})

	t.Run("rejects escaping entries", func(t *testing.T) {
		evil := tarball(t, map[string]string{"repo-main/../../etc/passwd": "x"})
		err := extractTarGz(bytes.NewReader(evil), "", t.TempDir())
		assert.ErrorContains(t, err, "escapes destination")
	})
}

func TestOnRunContent(t *testing.T) {
	t.Run("skips when dest already populated", func(t *testing.T) {
		dest := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dest, "notebook.ipynb"), []byte("x"), 0o644))

		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}
		err := OnRunContent(context.Background(), host, &Input{Repo: "https://example.com/r.git", Dest: dest})
		require.NoError(t, err)
		assert.Empty(t, runner.Calls)
	})

	t.Run("falls back to the archive when git yields nothing", func(t *testing.T) {
		raw := tarball(t, map[string]string{"labs-main/rag/notebook.ipynb": "cells"})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(raw)
		}))
		defer srv.Close()

		// git clone "succeeds" but the scripted runner creates no files, so
		// the sparse checkout reads as empty.
		runner := &testutil.ScriptedRunner{}
		runner.On("git clone", hostcmd.Result{})
		host := &registry.Host{Exec: runner, HTTP: srv.Client()}

		dest := t.TempDir()
		err := OnRunContent(context.Background(), host, &Input{
			Repo:       "https://example.com/labs.git",
			Subdir:     "rag",
			Dest:       dest,
			ArchiveURL: srv.URL + "/labs.tar.gz",
		})
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(dest, "notebook.ipynb"))
		require.NoError(t, err)
		assert.Equal(t, "cells", string(got))
	})

	t.Run("errors when both paths come up empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		host := &registry.Host{Exec: &testutil.ScriptedRunner{}, HTTP: srv.Client()}
		err := OnRunContent(context.Background(), host, &Input{
			Repo:       "https://example.com/labs.git",
			Subdir:     "rag",
			Dest:       t.TempDir(),
			ArchiveURL: srv.URL + "/labs.tar.gz",
		})
		assert.ErrorContains(t, err, "archive fallback failed")
	})
}
