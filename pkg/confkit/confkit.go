// Package confkit holds the small pieces shared by every config loader:
// dotenv bootstrap, project-relative paths and side-file sections.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands env vars in file and, when relative, joins it to base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory of the main config file path.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// LoadFile loads a go-zero config file into a fresh T, expanding ${VAR}
// references when useEnv is set.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	LoadDotenvOnce()
	var cfg T
	var opts []conf.Option
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	if err := conf.Load(path, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section points at a config file that is loaded separately from the main
// one, e.g. `Market: {File: market.yaml}`.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and loads it with loader. An empty File
// is not an error; use Require when the section is mandatory.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}

// Require reports an error naming the section when it was never hydrated.
func (s *Section[T]) Require(name string) error {
	if s.Value != nil {
		return nil
	}
	if s.File == "" {
		return fmt.Errorf("%s: file not configured", name)
	}
	return fmt.Errorf("%s: %s not loaded", name, s.File)
}
