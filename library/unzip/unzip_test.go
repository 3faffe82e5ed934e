package unzip

import (
	"archive/zip"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infraglue.org/failure"
)

func writeZip(t *testing.T, files map[string]string) string {
	p := filepath.Join(t.TempDir(), "a.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestRun(t *testing.T) {
	src := writeZip(t, map[string]string{
		"app/run.ps1":   "Write-Host hi",
		"app/conf.ini":  "[main]",
		"app/debug.log": "noise",
	})
	dest := t.TempDir()
	r, err := Run(Args{Source: src, Destination: dest, Exclude: []string{"*.log"}}, false)
	require.NoError(t, err)
	assert.Equal(t, true, r["changed"])
	assert.ElementsMatch(t, []string{"app/run.ps1", "app/conf.ini"}, r["files"])

	b, err := ioutil.ReadFile(filepath.Join(dest, "app", "run.ps1"))
	require.NoError(t, err)
	assert.Equal(t, "Write-Host hi", string(b))
	_, err = os.Stat(filepath.Join(dest, "app", "debug.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestInclude(t *testing.T) {
	src := writeZip(t, map[string]string{"a.txt": "a", "b.dll": "b"})
	dest := t.TempDir()
	r, err := Run(Args{Source: src, Destination: dest, Include: []string{"*.dll"}}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.dll"}, r["files"])
}

func TestCreates(t *testing.T) {
	dest := t.TempDir()
	marker := filepath.Join(dest, "installed")
	require.NoError(t, ioutil.WriteFile(marker, nil, 0644))
	r, err := Run(Args{Source: "/does/not/matter.zip", Destination: dest, Creates: marker}, false)
	require.NoError(t, err)
	assert.Equal(t, false, r["changed"])
	assert.Equal(t, "skipped, since "+marker+" exists", r["msg"])
}

func TestCheckMode(t *testing.T) {
	src := writeZip(t, map[string]string{"a.txt": "a"})
	dest := t.TempDir()
	r, err := Run(Args{Source: src, Destination: dest}, true)
	require.NoError(t, err)
	assert.Equal(t, true, r["changed"])
	_, err = os.Stat(filepath.Join(dest, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestZipSlip(t *testing.T) {
	src := writeZip(t, map[string]string{"../../evil.sh": "rm -rf"})
	_, err := Run(Args{Source: src, Destination: t.TempDir()}, false)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Validation))
	assert.Contains(t, err.Error(), "illegal file path")
}

func TestMissingSource(t *testing.T) {
	_, err := Run(Args{Source: filepath.Join(t.TempDir(), "none.zip"), Destination: t.TempDir()}, false)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Validation))
}
