package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const maxWalkDepth = 8

// ProjectRoot locates the module root (go.mod or .git) above this source
// file, falling back to the working directory for installed binaries.
func ProjectRoot() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		root := ""
		walkUp(filepath.Dir(file), func(dir string) bool {
			if isModuleRoot(dir) {
				root = dir
				return true
			}
			return false
		})
		if root != "" {
			return root, nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// ProjectPath joins the project root with rel.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// MustProjectPath returns ProjectPath(rel) and panics on failure.
func MustProjectPath(rel string) string {
	p, err := ProjectPath(rel)
	if err != nil {
		panic(err)
	}
	return p
}

// walkUp calls visit on dir and its parents until visit returns true, the
// filesystem root is reached, or maxWalkDepth levels were visited.
func walkUp(dir string, visit func(string) bool) {
	for i := 0; i < maxWalkDepth; i++ {
		if visit(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func isModuleRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git"))
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
