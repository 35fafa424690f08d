package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tt "github.com/gnolang/tclean/internal/types"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := New(8, zap.NewNop())
	require.NoError(t, err)
	return c
}

func unit(src string) tt.Unit {
	return tt.Unit{ID: "a.go", Path: "a.go", Text: []byte(src)}
}

func categories(diags []tt.Diagnostic) []tt.Category {
	var out []tt.Category
	for _, d := range diags {
		out = append(out, d.Category)
	}
	return out
}

const unusedSrc = `package a

import (
	"fmt"
	"os"
)

func f() {
	x := 1
	fmt.Println("hi")
}
`

func TestCompileReportsOnlyRequested(t *testing.T) {
	t.Parallel()
	c := newCompiler(t)

	res, err := c.Compile(context.Background(), unit(unusedSrc), Request{
		Diagnostics: map[tt.Category]tt.Severity{tt.CategoryUnusedImport: tt.SeverityWarning},
	})
	require.NoError(t, err)
	require.NotNil(t, res.File)
	assert.True(t, res.DiagnosticsAvailable)
	require.Len(t, res.Diagnostics, 1)

	d := res.Diagnostics[0]
	assert.Equal(t, tt.CategoryUnusedImport, d.Category)
	assert.Equal(t, tt.SeverityWarning, d.Severity)
	assert.Equal(t, `"os"`, unusedSrc[d.Range.Start:d.Range.End])
	assert.Equal(t, 5, d.Start.Line)

	res, err = c.Compile(context.Background(), unit(unusedSrc), Request{
		Diagnostics: map[tt.Category]tt.Severity{
			tt.CategoryUnusedImport:   tt.SeverityInfo,
			tt.CategoryUnusedVariable: tt.SeverityError,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []tt.Category{tt.CategoryUnusedImport, tt.CategoryUnusedVariable}, categories(res.Diagnostics))
	v := res.Diagnostics[1]
	assert.Equal(t, "x", unusedSrc[v.Range.Start:v.Range.End])
	assert.Equal(t, tt.SeverityError, v.Severity)
}

func TestCompileNoDiagnosticsRequested(t *testing.T) {
	t.Parallel()
	c := newCompiler(t)
	res, err := c.Compile(context.Background(), unit(unusedSrc), Request{})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.True(t, res.DiagnosticsAvailable)

	res, err = c.Compile(context.Background(), unit(unusedSrc), Request{
		Diagnostics: map[tt.Category]tt.Severity{tt.CategoryUnusedImport: tt.SeverityOff},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestCompileSyntaxError(t *testing.T) {
	t.Parallel()
	c := newCompiler(t)
	res, err := c.Compile(context.Background(), unit("package a\nfunc {\n"), Request{
		Diagnostics: map[tt.Category]tt.Severity{
			tt.CategorySyntax:       tt.SeverityError,
			tt.CategoryUnusedImport: tt.SeverityError,
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.File)
	assert.Error(t, res.ParseErr)
	assert.False(t, res.DiagnosticsAvailable)
	require.NotEmpty(t, res.Diagnostics)
	for _, d := range res.Diagnostics {
		assert.Equal(t, tt.CategorySyntax, d.Category)
	}
}

func TestCompileCache(t *testing.T) {
	t.Parallel()
	c := newCompiler(t)
	ctx := context.Background()

	first, err := c.Compile(ctx, unit(unusedSrc), Request{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Compile(ctx, unit(unusedSrc), Request{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Same(t, first.File, second.File)

	fresh, err := c.Compile(ctx, unit(unusedSrc), Request{Fresh: true})
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	assert.NotSame(t, first.File, fresh.File)
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()
	c := newCompiler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compile(ctx, unit(unusedSrc), Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileSuppression(t *testing.T) {
	t.Parallel()
	src := `package a

import "os" //nolint:unused-import

func f() {
	x := 1 //nolint:unused-variable
	y := 2 //nolint:unused-variable
	_ = y
	//nolint:golint
	z := 3
	_ = z
}
`
	c := newCompiler(t)
	res, err := c.Compile(context.Background(), unit(src), Request{
		Diagnostics: map[tt.Category]tt.Severity{
			tt.CategoryUnusedImport:      tt.SeverityWarning,
			tt.CategoryUnusedVariable:    tt.SeverityWarning,
			tt.CategoryUnusedSuppression: tt.SeverityInfo,
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, tt.CategoryUnusedSuppression, d.Category)
	assert.Equal(t, "//nolint:unused-variable", src[d.Range.Start:d.Range.End])
	assert.Equal(t, 7, d.Start.Line)
}

func TestCompileUncertainImportKept(t *testing.T) {
	t.Parallel()
	// yaml is imported under a path whose last element is not the package name
	src := `package a

import "example.com/yaml-go"

func f() {
	yaml.Marshal(nil)
}
`
	c := newCompiler(t)
	res, err := c.Compile(context.Background(), unit(src), Request{
		Diagnostics: map[tt.Category]tt.Severity{tt.CategoryUnusedImport: tt.SeverityWarning},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestPackageName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"fmt":                           "fmt",
		"net/http":                      "http",
		"gopkg.in/yaml.v3":              "yaml",
		"github.com/x/y/v2":             "y",
		"github.com/pmezard/go-difflib": "difflib",
		"example.com/foo-bar":           "foo_bar",
	}
	for in, want := range tests {
		assert.Equal(t, want, PackageName(in), in)
	}
}

func TestLanguageVersion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "go1.22", languageVersion("1.22.2"))
	assert.Equal(t, "go1.21", languageVersion("go1.21"))
	assert.Equal(t, "", languageVersion(""))
	assert.Equal(t, "", languageVersion("banana"))
}
