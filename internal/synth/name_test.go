package synth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkNameDeterminism(t *testing.T) {
	source := []byte(`export const h = () => { "use client"; return 1; };`)

	a := ChunkName("/proj/src/widget.tsx", source, 17, "tsx")
	b := ChunkName("/proj/src/widget.tsx", source, 17, "tsx")
	assert.Equal(t, a, b, "identical inputs must produce identical names")

	assert.True(t, strings.HasPrefix(a, "widget."), "name starts with the sanitized basename")
	assert.True(t, strings.HasSuffix(a, ".client.tsx"), "name ends with .client.<ext>")
}

func TestChunkNameDistinguishesInputs(t *testing.T) {
	source := []byte(`export const h = () => { "use client"; return 1; };`)
	base := ChunkName("/proj/src/widget.tsx", source, 17, "tsx")

	assert.NotEqual(t, base, ChunkName("/proj/src/other.tsx", source, 17, "tsx"),
		"identical content at the same offset in a different file must differ")
	assert.NotEqual(t, base, ChunkName("/proj/src/widget.tsx", source, 18, "tsx"),
		"a different handler offset must differ")
	assert.NotEqual(t, base, ChunkName("/proj/src/widget.tsx", append(source, ' '), 17, "tsx"),
		"any source edit must differ")
}

func TestChunkNameWindowsPaths(t *testing.T) {
	source := []byte("x")
	a := ChunkName(`C:\proj\src\widget.tsx`, source, 0, "tsx")
	b := ChunkName("C:/proj/src/widget.tsx", source, 0, "tsx")
	assert.Equal(t, a, b, "path separators are canonicalized before hashing")
}

func TestSanitizeBasename(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/proj/widget.tsx", "widget"},
		{"/proj/my widget (v2).tsx", "my_widget_v2_"},
		{"/proj/Über.tsx", "_ber"},
		{"/proj/a..b.ts", "a_b"},
		{"/proj/ok-name_1.ts", "ok-name_1"},
	}
	for _, tt := range tests {
		got := sanitizeBasename(tt.id)
		assert.Equal(t, tt.want, got, "sanitizeBasename(%q)", tt.id)
	}
}

func TestInlineID(t *testing.T) {
	id := InlineID("/proj/src/widget.tsx", "widget.abc123def456.client.tsx")

	assert.True(t, IsInlineID(id))
	assert.Equal(t, "/proj/src/widget.abc123def456.client.tsx", InlinePath(id))
	assert.Equal(t, "/proj/src/widget.abc123def456.client.tsx", InlinePath(id+"?v=2"),
		"query strings are stripped when recovering the path")
	assert.False(t, IsInlineID("/proj/src/widget.tsx"))
}

func TestRegistryIsolation(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.Set("\x00use-client:/x.client.tsx", "code-a")
	if _, ok := b.Get("\x00use-client:/x.client.tsx"); ok {
		t.Fatal("registries must not share entries across instances")
	}

	text, ok := a.Get("\x00use-client:/x.client.tsx")
	assert.True(t, ok)
	assert.Equal(t, "code-a", text)

	a.Reset()
	_, ok = a.Get("\x00use-client:/x.client.tsx")
	assert.False(t, ok, "Reset clears all entries")
	assert.Equal(t, 0, a.Len())
}
