// Package users discovers recipients and their candy files on disk.
//
// Layout:
//
//	<users dir>/<recipient>/data.yml
//	<users dir>/<recipient>/candies/**/<name>.<ext>
package users

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	CandiesDir = "candies"
	DataFile   = "data.yml"
)

// User is a recipient; Name is the directory name and the recipient identity.
type User struct {
	Name string
	Dir  string
}

func New(dir string) User {
	return User{Name: filepath.Base(dir), Dir: dir}
}

func (u User) CandiesDir() string { return filepath.Join(u.Dir, CandiesDir) }

func (u User) DataPath() string { return filepath.Join(u.Dir, DataFile) }

// List returns every user directory under usersDir, sorted by name.
// Hidden entries and names containing line breaks are skipped.
func List(usersDir string) ([]User, error) {
	entries, err := os.ReadDir(usersDir)
	if err != nil {
		return nil, fmt.Errorf("read users dir: %w", err)
	}
	var out []User
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		if strings.ContainsAny(e.Name(), "\r\n") {
			log.Printf("⚠️ Skipping user directory %q: name contains a line break", e.Name())
			continue
		}
		out = append(out, New(filepath.Join(usersDir, e.Name())))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CandyFiles walks the user's candies directory recursively and returns every
// regular file that has an extension. A missing directory yields no files.
func CandyFiles(u User) ([]string, error) {
	root := u.CandiesDir()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if filepath.Ext(d.Name()) == "" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list candies of %s: %w", u.Name, err)
	}
	return files, nil
}
