package compile

import (
	"go/types"
	"path"
	"strings"

	"golang.org/x/mod/module"
)

// offlineImporter resolves every import path to an empty, complete package
// named after the path. No export data or source is read.
type offlineImporter struct{}

func (offlineImporter) Import(importPath string) (*types.Package, error) {
	if importPath == "unsafe" {
		return types.Unsafe, nil
	}
	pkg := types.NewPackage(importPath, PackageName(importPath))
	pkg.MarkComplete()
	return pkg, nil
}

// PackageName guesses the package name of an import path: the last
// element, without a major version suffix or a gopkg.in ".vN" suffix.
func PackageName(importPath string) string {
	prefix, _, ok := module.SplitPathVersion(importPath)
	if ok && prefix != "" {
		importPath = prefix
	}
	name := path.Base(importPath)
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
}
