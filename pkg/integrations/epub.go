package integrations

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-shiori/go-epub"
)

// EPubArchiver packs the pages of a chapter into a single-section EPUB.
// Tracker metadata lands in the book's title, author and description.
type EPubArchiver struct{}

func NewEPubArchiver() *EPubArchiver {
	return &EPubArchiver{}
}

func (a *EPubArchiver) Extension() string { return ".epub" }

func (a *EPubArchiver) Archive(sourcePath, archivePath string, info *ComicInfo) error {
	files, err := collectFiles(sourcePath)
	if err != nil {
		return err
	}

	var pages []sourceFile
	for _, file := range files {
		if isImageFile(file.name) {
			pages = append(pages, file)
		}
	}
	if len(pages) == 0 {
		return fmt.Errorf("no images found in %s", sourcePath)
	}

	title := bookTitle(info)
	e, err := epub.NewEpub(title)
	if err != nil {
		return fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetLang("en")
	if info != nil {
		if info.Writer != "" {
			e.SetAuthor(info.Writer)
		}
		if info.Summary != "" {
			e.SetDescription(info.Summary)
		}
	}

	var htmlContent strings.Builder
	htmlContent.WriteString(fmt.Sprintf("<h1>%s</h1>\n", title))
	for i, page := range pages {
		internalPath, err := e.AddImage(page.path, "")
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", page.name, err)
		}
		htmlContent.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}
	if _, err := e.AddSection(htmlContent.String(), title, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}

	return writeAtomically(archivePath, func(f *os.File) error {
		if _, err := e.WriteTo(f); err != nil {
			return fmt.Errorf("failed to write EPub: %w", err)
		}
		return nil
	})
}

func bookTitle(info *ComicInfo) string {
	switch {
	case info == nil:
		return "Untitled"
	case info.Series != "" && info.Number != "":
		return fmt.Sprintf("%s %s", info.Series, info.Number)
	case info.Title != "":
		return info.Title
	default:
		return "Untitled"
	}
}
