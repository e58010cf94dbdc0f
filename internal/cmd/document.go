package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/outline-cli/internal/docfile"
	"github.com/salmonumbrella/outline-cli/internal/outline"
)

// session is a loaded document file and its validated snapshot.
type session struct {
	path string
	file *docfile.File
	doc  *outline.Document
}

// openDocument reads path ("-" for stdin) and builds the snapshot with the
// resolved options.
func openDocument(cmd *cobra.Command, path string) (*session, error) {
	data, err := readInputBytes(path, stdinFromContext(cmd.Context()))
	if err != nil {
		return nil, err
	}
	file, err := docfile.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc, err := file.Document(documentOptions(cmd)...)
	if err != nil {
		return nil, err
	}
	loggerFromContext(cmd.Context()).Debug("document loaded", "path", path, "blocks", doc.Len())
	return &session{path: strings.TrimSpace(path), file: file, doc: doc}, nil
}

// save writes doc back over the file it was loaded from.
func (s *session) save(doc *outline.Document) error {
	if s.path == "-" {
		return fmt.Errorf("--write needs a document path, not stdin")
	}
	s.file.Blocks = doc.Blocks()
	s.doc = doc
	return s.file.Save(s.path)
}

// commit saves doc when --write was given and it changed.
func (s *session) commit(cmd *cobra.Command, doc *outline.Document, changed bool) error {
	write, _ := cmd.Flags().GetBool("write")
	if !write || !changed {
		return nil
	}
	if err := s.save(doc); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Debug("document saved", "path", s.path, "version", doc.Version())
	return nil
}

func addWriteFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("write", false, "Save the result back to the document file")
}
