package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	dotenvMu   sync.Mutex
	dotenvUsed []string
)

// LoadDotenvOnce loads .env files once per process. ENV_FILE names an explicit
// file; otherwise .env is looked up from the working directory and from the
// source tree upwards to the module root. NO_DOTENV=1 disables loading and
// DOTENV_OVERLOAD=1 lets the file override variables already set.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

// DotenvFiles lists the files LoadDotenvOnce actually read.
func DotenvFiles() []string {
	dotenvMu.Lock()
	defer dotenvMu.Unlock()
	return append([]string(nil), dotenvUsed...)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		loadEnvFile(envFile)
		return
	}

	seen := make(map[string]bool)
	try := func(dir string) bool {
		p := filepath.Join(dir, ".env")
		if !seen[p] {
			seen[p] = true
			loadEnvFile(p)
		}
		return isModuleRoot(dir)
	}
	if wd, err := os.Getwd(); err == nil {
		walkUp(wd, try)
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		walkUp(filepath.Dir(file), try)
	}
}

func loadEnvFile(p string) {
	if !fileExists(p) {
		return
	}
	var err error
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		err = godotenv.Overload(p)
	} else {
		err = godotenv.Load(p)
	}
	if err != nil {
		return
	}
	dotenvMu.Lock()
	dotenvUsed = append(dotenvUsed, p)
	dotenvMu.Unlock()
}
