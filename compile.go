package xdrzcc

import (
	"fmt"
	"os"
	"path/filepath"
)

const outputPermission = 0644 // -rw-r--r--

// CompileFile runs the whole pipeline: parse the IDL, resolve symbols,
// generate, and write the source/header pair. Any failure leaves the
// output pair untrusted; there is no partial-success mode.
func CompileFile(inputPath, sourcePath, headerPath string, opts Options) error {
	doc, err := ParseFile(inputPath)
	if err != nil {
		return err
	}
	if err := doc.Resolve(); err != nil {
		return err
	}

	if opts.HeaderInclude == "" {
		opts.HeaderInclude = filepath.Base(headerPath)
	}

	source, header, err := doc.Generate(opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(headerPath, []byte(header), outputPermission); err != nil {
		return fmt.Errorf("can't write output header %s: %w", headerPath, err)
	}
	if err := os.WriteFile(sourcePath, []byte(source), outputPermission); err != nil {
		return fmt.Errorf("can't write output source %s: %w", sourcePath, err)
	}
	return nil
}
