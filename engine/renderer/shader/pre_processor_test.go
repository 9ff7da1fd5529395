package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreProcessorInclude(t *testing.T) {
	pp := NewPreProcessor()

	out, err := pp.Process("// header\n  //@oxy:include hyper\nfn f() {}", LanguageWGSL)
	require.NoError(t, err)
	assert.Contains(t, out, "struct Hyper {")
	assert.True(t, strings.HasPrefix(out, "// header\n"))
	assert.True(t, strings.HasSuffix(out, "fn f() {}"))
	assert.Empty(t, pp.Declarations())

	out, err = pp.Process("//@oxy:include hyper", LanguageGLSL)
	require.NoError(t, err)
	assert.Contains(t, out, "layout(std140) uniform Hyper {")
	assert.Contains(t, out, "} hyper;")
}

func TestPreProcessorGroup(t *testing.T) {
	pp := NewPreProcessor()

	out, err := pp.Process("//@oxy:group 1 2 uniform h hyper", LanguageWGSL)
	require.NoError(t, err)
	assert.Equal(t, "@group(1) @binding(2) var<uniform> h: Hyper;", out)

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, 1, *decls[0].Group)
	assert.Equal(t, 2, *decls[0].Binding)
	assert.Equal(t, []AnnotationArg{"uniform", "h", "hyper"}, decls[0].Args)
	assert.Equal(t, 1, decls[0].Line)

	// declarations reset between calls
	_, err = pp.Process("fn f() {}", LanguageWGSL)
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())

	_, err = pp.Process("//@oxy:group 0 0 uniform hyper hyper", LanguageGLSL)
	assert.Error(t, err)
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", "//@oxy:"},
		{"unknown type", "//@oxy:provider hyper"},
		{"include arity", "//@oxy:include"},
		{"include unknown struct", "//@oxy:include camera"},
		{"group arity", "//@oxy:group 0 0 uniform hyper"},
		{"group number", "//@oxy:group a 0 uniform hyper hyper"},
		{"binding number", "//@oxy:group 0 b uniform hyper hyper"},
		{"address space", "//@oxy:group 0 0 storage hyper hyper"},
		{"group struct", "//@oxy:group 0 0 uniform hyper camera"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := parseAnnotation(tc.line, 7)
			assert.Nil(t, a)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 7")
		})
	}

	a, err := parseAnnotation("let x = 1; // @oxy:include hyper", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)
}
