package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppName names the per-user config directory.
const AppName = "henkan"

// indexMarkers identify a data directory: a built index or a first shard.
var indexMarkers = []string{"dictionary.idx", "dictionary00.txt"}

// PathResolver locates the data and config directories relative to the
// running binary, the working directory and the user's config dir.
type PathResolver struct {
	executableDir string
	workDir       string
	homeDir       string
	configDir     string
}

// NewPathResolver inspects the environment of the running binary.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}
	workDir, _ := os.Getwd()

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		workDir:       workDir,
		homeDir:       homeDir,
		configDir:     configDirFor(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

func configDirFor(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	}
	return filepath.Join(homeDir, ".config", AppName)
}

// DataDirCandidates lists where a data directory named path is looked for,
// in order of preference.
func (pr *PathResolver) DataDirCandidates(path string) []string {
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, filepath.Join(pr.executableDir, path))
		if pr.workDir != "" {
			candidates = append(candidates, filepath.Join(pr.workDir, path))
		}
	}
	return append(candidates,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// GetDataDir returns the first candidate that looks like a data directory.
// When none does, the first candidate is returned so that loading fails
// with a meaningful path.
func (pr *PathResolver) GetDataDir(path string) string {
	candidates := pr.DataDirCandidates(path)
	for _, dir := range candidates {
		if IsDataDir(dir) {
			log.Debugf("Found data directory: %s", dir)
			return dir
		}
		log.Debugf("Data directory candidate not valid: %s", dir)
	}
	return candidates[0]
}

// IsDataDir reports whether dir holds a dictionary index or shard.
func IsDataDir(dir string) bool {
	if !IsDir(dir) {
		return false
	}
	for _, name := range indexMarkers {
		if FileExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

// GetConfigPath returns a writable location for filename, falling back to
// the temp dir when the config dir cannot be written.
func (pr *PathResolver) GetConfigPath(filename string) string {
	for _, dir := range []string{pr.configDir, filepath.Join(os.TempDir(), AppName), pr.executableDir} {
		if CheckDirStatus(dir).Writable {
			if dir != pr.configDir {
				log.Warnf("Using fallback config location: %s", dir)
			}
			return filepath.Join(dir, filename)
		}
	}
	return filepath.Join(os.TempDir(), filename)
}

// ConfigDir returns the per-user config directory.
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// ExecutableDir returns the directory of the running binary.
func (pr *PathResolver) ExecutableDir() string {
	return pr.executableDir
}
