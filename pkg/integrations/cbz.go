package integrations

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

// CBZArchiver writes a plain zip with pages stored uncompressed and the
// ComicInfo document at the root.
type CBZArchiver struct{}

func NewCBZArchiver() *CBZArchiver {
	return &CBZArchiver{}
}

func (a *CBZArchiver) Extension() string { return ".cbz" }

func (a *CBZArchiver) Archive(sourcePath, archivePath string, info *ComicInfo) error {
	files, err := collectFiles(sourcePath)
	if err != nil {
		return err
	}
	if len(files) == 0 && info == nil {
		return fmt.Errorf("nothing to archive in %s", sourcePath)
	}

	return writeAtomically(archivePath, func(f *os.File) error {
		zw := zip.NewWriter(f)
		for _, file := range files {
			if err := addZipFile(zw, file); err != nil {
				zw.Close()
				return err
			}
		}
		if info != nil {
			body, err := info.Marshal()
			if err != nil {
				zw.Close()
				return err
			}
			w, err := zw.CreateHeader(&zip.FileHeader{Name: ComicInfoName, Method: zip.Deflate})
			if err != nil {
				zw.Close()
				return fmt.Errorf("failed to add %s: %w", ComicInfoName, err)
			}
			if _, err := w.Write(body); err != nil {
				zw.Close()
				return fmt.Errorf("failed to add %s: %w", ComicInfoName, err)
			}
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finalize cbz: %w", err)
		}
		return nil
	})
}

func addZipFile(zw *zip.Writer, file sourceFile) error {
	src, err := os.Open(file.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.name, err)
	}
	defer src.Close()

	// images are already compressed
	method := zip.Deflate
	if isImageFile(file.name) {
		method = zip.Store
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: file.name, Method: method})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", file.name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to add %s: %w", file.name, err)
	}
	return nil
}
