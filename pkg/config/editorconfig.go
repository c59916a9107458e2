package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
)

// IndentFor resolves one indentation level for the file at path from the
// .editorconfig files above it. It returns "" when none applies.
func IndentFor(fs afero.Fs, path string) string {
	path = filepath.Clean(path)

	// nearest first
	var files []*editorconfig.Editorconfig
	var dirs []string
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		ec := readEditorconfig(fs, filepath.Join(dir, editorconfig.ConfigNameDefault))
		if ec != nil {
			files = append(files, ec)
			dirs = append(dirs, dir)
			if ec.Root {
				break
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	var style, size string
	for i := len(files) - 1; i >= 0; i-- {
		rel, err := filepath.Rel(dirs[i], path)
		if err != nil {
			continue
		}
		def, err := files[i].GetDefinitionForFilename(filepath.ToSlash(rel))
		if err != nil {
			continue
		}
		if def.IndentStyle != "" {
			style = def.IndentStyle
		}
		if def.IndentSize != "" {
			size = def.IndentSize
		}
	}

	switch style {
	case editorconfig.IndentStyleTab:
		return "\t"
	case editorconfig.IndentStyleSpaces:
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			n = 4
		}
		return strings.Repeat(" ", n)
	}
	return ""
}

func readEditorconfig(fs afero.Fs, path string) *editorconfig.Editorconfig {
	f, err := fs.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	ec, err := editorconfig.Parse(f)
	if err != nil {
		return nil
	}
	return ec
}
