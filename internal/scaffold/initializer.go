package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/regent/internal/artifacts"
	"github.com/dyluth/regent/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Result lists what Initialize created, relative to the project directory
type Result struct {
	Files []string
	Dirs  []string
}

// Initialize writes regent.yml into dir and creates the artifact layout.
// If force is true, an existing regent.yml is replaced. Downloaded data
// under the base directory is never removed.
func Initialize(dir string, force bool) (*Result, error) {
	if force {
		if err := handleForce(dir); err != nil {
			return nil, err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return nil, err
	}

	if err := writeFiles(dir, files); err != nil {
		return nil, err
	}

	// The written file must load with our own config rules
	cfg, err := config.Load(filepath.Join(dir, config.DefaultPath))
	if err != nil {
		return nil, fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}

	layout := artifacts.New(filepath.Join(dir, cfg.Paths.BaseDir))
	if err := layout.Ensure(); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, f := range files {
		result.Files = append(result.Files, f.Path)
	}
	for _, d := range []string{layout.RawDir(), layout.ImageDir(), layout.StructuredDir()} {
		rel, err := filepath.Rel(dir, d)
		if err != nil {
			rel = d
		}
		result.Dirs = append(result.Dirs, rel+"/")
	}
	return result, nil
}

// handleForce removes an existing regent.yml if --force was specified
func handleForce(dir string) error {
	path := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultPath, err)
		}
	}
	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	regentYml, err := templatesFS.ReadFile("templates/regent.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read regent.yml template: %w", err)
	}
	return []FileInfo{{
		Path:        config.DefaultPath,
		Content:     regentYml,
		Permissions: 0644,
	}}, nil
}

// writeFiles writes all template files beneath dir
func writeFiles(dir string, files []FileInfo) error {
	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", file.Path, err)
		}
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}
	return nil
}

// PrintSuccess prints the created files and next steps
func PrintSuccess(w io.Writer, result *Result) {
	fmt.Fprintln(w, "\n✅ Successfully initialized regent project!")
	fmt.Fprintln(w, "\nCreated:")
	for _, f := range result.Files {
		fmt.Fprintf(w, "  ✓ %s\n", f)
	}
	for _, d := range result.Dirs {
		fmt.Fprintf(w, "  ✓ %s\n", d)
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Review regent.yml (remote, store backend, ledger policy)")
	fmt.Fprintln(w, "  2. Run 'regent catalog' to see what the remote offers")
	fmt.Fprintln(w, "  3. Run 'regent download --missing' to fetch new puzzles")
}
