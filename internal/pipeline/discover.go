package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/wastedetect/internal/config"
)

// SourceKind is what the --source path turned out to be.
type SourceKind int

const (
	SourceInvalid SourceKind = iota
	SourceFile
	SourceDir
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceDir:
		return "directory"
	default:
		return "invalid"
	}
}

// ResolveSource stats path (following symlinks). Anything that is neither a
// regular file nor a directory, including a path that does not exist, is
// SourceInvalid.
func ResolveSource(path string) SourceKind {
	if path == "" {
		return SourceInvalid
	}
	fi, err := os.Stat(path)
	switch {
	case err != nil:
		return SourceInvalid
	case fi.Mode().IsRegular():
		return SourceFile
	case fi.IsDir():
		return SourceDir
	default:
		return SourceInvalid
	}
}

// MediaKind selects the handler for a file.
type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaImage
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "unsupported"
	}
}

// Supported extensions (lowercase, with leading dot).
var (
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".bmp":  true,
		".tiff": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true,
		".avi": true,
		".mov": true,
		".mkv": true,
	}
)

// Classify maps path to a MediaKind by its extension, ignoring case.
func Classify(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return MediaImage
	case videoExtensions[ext]:
		return MediaVideo
	default:
		return MediaUnsupported
	}
}

// ListDir returns the regular files directly inside dir, in the order the
// filesystem lists them. Subdirectories are not descended into and other
// entries are dropped. A symlink counts when its target is a regular file.
func ListDir(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Type().IsRegular():
			files = append(files, path)
		case e.Type()&os.ModeSymlink != 0:
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				files = append(files, path)
			}
		}
	}
	return files, nil
}

// ImageOutputPath is where the annotated copy of an image is saved:
// <output>/results/<basename>.
func ImageOutputPath(outputDir, src string) string {
	return filepath.Join(outputDir, config.ResultsDirName, filepath.Base(src))
}

// VideoOutputPath is where the annotated copy of a video is written:
// <output>/<basename>.
func VideoOutputPath(outputDir, src string) string {
	return filepath.Join(outputDir, filepath.Base(src))
}
