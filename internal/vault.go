package internal

import (
	"os"
	"path/filepath"
)

const (
	MetaDirName  = ".gitnotes"
	VaultEnvVar  = "GITNOTES_PATH"
	DefaultVault = "Notes"
)

type Vault struct {
	Root string // notes directory, also the git worktree
}

func (v Vault) GitPath() string {
	return filepath.Join(v.Root, ".git")
}

func (v Vault) MetaPath() string {
	return filepath.Join(v.Root, MetaDirName)
}

func (v Vault) ConfigPath() string {
	return filepath.Join(v.MetaPath(), "config.yaml")
}

func (v Vault) IgnorePath() string {
	return filepath.Join(v.Root, IgnoreFilename)
}

// Rel converts an absolute path inside the vault to a NotePath.
func (v Vault) Rel(abs string) (NotePath, error) {
	rel, err := filepath.Rel(v.Root, abs)
	if err != nil {
		return "", ErrInvalidPath
	}
	return NewNotePath(filepath.ToSlash(rel))
}

func (v Vault) Abs(p NotePath) string {
	return filepath.Join(v.Root, filepath.FromSlash(p.String()))
}

type VaultResolver struct {
	homeDir string
	getenv  func(string) string
	getwd   func() (string, error)
}

func NewVaultResolver() *VaultResolver {
	home, _ := os.UserHomeDir()
	return &VaultResolver{
		homeDir: home,
		getenv:  os.Getenv,
		getwd:   os.Getwd,
	}
}

func (r *VaultResolver) Default() Vault {
	return Vault{Root: filepath.Join(r.homeDir, DefaultVault)}
}

// Nearest walks up from the working directory looking for a .gitnotes directory.
func (r *VaultResolver) Nearest() (Vault, bool) {
	cwd, err := r.getwd()
	if err != nil {
		return Vault{}, false
	}
	return r.findVault(cwd)
}

func (r *VaultResolver) findVault(dir string) (Vault, bool) {
	for {
		info, err := os.Stat(filepath.Join(dir, MetaDirName))
		if err == nil && info.IsDir() {
			return Vault{Root: dir}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Vault{}, false
		}
		dir = parent
	}
}

// Resolve picks the vault by precedence: explicit path, environment,
// nearest enclosing vault, then ~/Notes.
func (r *VaultResolver) Resolve(explicit string) Vault {
	if explicit != "" {
		return Vault{Root: absOrSelf(explicit)}
	}
	if env := r.getenv(VaultEnvVar); env != "" {
		return Vault{Root: absOrSelf(env)}
	}
	if v, ok := r.Nearest(); ok {
		return v
	}
	return r.Default()
}

func (v Vault) Initialized() bool {
	info, err := os.Stat(v.MetaPath())
	if err != nil || !info.IsDir() {
		return false
	}
	info, err = os.Stat(v.GitPath())
	return err == nil && info.IsDir()
}

func absOrSelf(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
