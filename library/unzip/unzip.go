// Package unzip extracts a zip archive on the managed host.
package unzip // import "infraglue.org/library/unzip"

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"infraglue.org/ansible"
	"infraglue.org/failure"
	"infraglue.org/util"
)

var Spec = ansible.Spec{
	"source":      {Type: ansible.TypeStr, Required: true},
	"destination": {Type: ansible.TypeStr, Required: true},
	"include":     {Type: ansible.TypeList},
	"exclude":     {Type: ansible.TypeList},
	"creates":     {Type: ansible.TypeStr},
}

type Args struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	// Include and Exclude are globs over entry names; only "*" is special.
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
	Creates string   `json:"creates"`
}

func (a Args) wanted(name string) bool {
	if len(a.Include) > 0 && !util.GlobMatches(name, a.Include) {
		return false
	}
	return !util.GlobMatches(name, a.Exclude)
}

// Run extracts a.Source into a.Destination. It does nothing when a.Creates
// names an existing path. In check mode the archive is read but nothing is
// written.
func Run(a Args, checkMode bool) (ansible.Result, error) {
	if a.Creates != "" {
		if _, err := os.Stat(a.Creates); err == nil {
			return ansible.Result{"changed": false, "msg": "skipped, since " + a.Creates + " exists"}, nil
		}
	}
	zr, err := zip.OpenReader(a.Source)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, failure.Validationf("", "source %s does not exist", a.Source)
		case errors.Is(err, zip.ErrInsecurePath):
			zr.Close()
			return nil, failure.Validationf("", "illegal file path in archive %s", a.Source)
		}
		return nil, failure.Wrap(failure.Validation, err, "open "+a.Source)
	}
	defer zr.Close()
	dest, err := filepath.Abs(a.Destination)
	if err != nil {
		return nil, errors.Wrap(err, "destination")
	}
	var files []string
	for _, f := range zr.File {
		if !a.wanted(f.Name) {
			continue
		}
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return nil, err
		}
		files = append(files, f.Name)
		if checkMode {
			continue
		}
		if err := extract(f, target); err != nil {
			return nil, errors.Wrapf(err, "extract %s", f.Name)
		}
	}
	return ansible.Result{
		"changed": len(files) > 0,
		"files":   files,
		"msg":     a.Source + " unzipped to " + a.Destination,
	}, nil
}

// entryPath joins name below dest, refusing names that escape it.
func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", failure.Validationf("", "illegal file path in archive: %s", name)
	}
	return target, nil
}

func extract(f *zip.File, target string) error {
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
