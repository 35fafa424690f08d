package fixer

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
)

// Format reparses src and prints it in canonical gofmt layout.
func Format(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()
	astFile, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, astFile); err != nil {
		return nil, fmt.Errorf("failed to format file: %w", err)
	}
	return buf.Bytes(), nil
}
