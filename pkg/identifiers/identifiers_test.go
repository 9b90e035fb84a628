package identifiers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportHTML = `<html><head><title>Pending follow requests</title></head>
<body>
<div class="pam"><div><a target="_blank" href="https://www.instagram.com/alice">alice</a></div><div>Jan 02, 2024 10:00 am</div></div>
<div class="pam"><div><a target="_blank" href="https://www.instagram.com/bob/">bob</a></div></div>
<div class="pam"><div><a target="_blank" href="https://www.instagram.com/alice/">alice again</a></div></div>
<div class="pam"><div><a href="https://www.instagram.com/_u/carol">carol</a></div></div>
<div><a href="https://help.instagram.com/about">help</a></div>
<div><a href="https://www.instagram.com/">home</a></div>
<div><a>no href</a></div>
<div class="pam"><div><a href="https://www.instagram.com/dave.d_1?igsh=abc">dave</a></div></div>
<div class="pam"><div><a href="https://www.instagram.com/bob">bob twice</a></div></div>
</body></html>`

func TestFromHTML(t *testing.T) {
	ids, err := FromHTML(strings.NewReader(exportHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave.d_1"}, ids)
}

func TestFromHTMLEmpty(t *testing.T) {
	ids, err := FromHTML(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUsernameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://www.instagram.com/alice":       "alice",
		"https://www.instagram.com/alice/":      "alice",
		"https://www.instagram.com/alice//":     "alice",
		"https://www.instagram.com/_u/alice":    "alice",
		"https://www.instagram.com/alice?hl=en": "alice",
		"  https://www.instagram.com/alice  ":   "alice",
		"https://www.instagram.com/":            "",
		"https://example.com/alice":             "",
		"http://www.instagram.com/alice":        "",
	}

	for in, want := range tests {
		assert.Equal(t, want, UsernameFromURL(in), in)
	}
}

func TestDedupePreservesFirstSeenOrder(t *testing.T) {
	in := []string{"c", "a", "c", "b", "a", "d", "b"}
	assert.Equal(t, []string{"c", "a", "b", "d"}, Dedupe(in))
	assert.Empty(t, Dedupe(nil))
}

const exportJSON = `{
  "relationships_follow_requests_sent": [
    {"title": "", "media_list_data": [], "string_list_data": [
      {"href": "https://www.instagram.com/alice", "value": "alice", "timestamp": 1704189600}
    ]},
    {"title": "", "string_list_data": [
      {"href": "https://www.instagram.com/bob", "value": "", "timestamp": 1704189601}
    ]},
    {"title": "carol", "string_list_data": [{"href": "", "value": ""}]},
    {"title": "", "string_list_data": [
      {"href": "https://www.instagram.com/alice", "value": "alice", "timestamp": 1704189602}
    ]}
  ]
}`

func TestFromJSON(t *testing.T) {
	ids, err := FromJSON(strings.NewReader(exportJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, ids)
}

func TestFromJSONBareArray(t *testing.T) {
	ids, err := FromJSON(strings.NewReader(`[{"string_list_data": [{"value": "zed"}]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zed"}, ids)
}

func TestFromJSONErrors(t *testing.T) {
	_, err := FromJSON(strings.NewReader(`{"something_else": []}`))
	assert.Error(t, err)

	_, err = FromJSON(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestFromText(t *testing.T) {
	ids, err := FromText(strings.NewReader("alice\n\n  bob  \r\n@carol\nalice\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, ids)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	ids, err := LoadFile(write("pending_follow_requests.html", exportHTML))
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	ids, err = LoadFile(write("pending_follow_requests.json", exportJSON))
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	ids, err = LoadFile(write("names.txt", "x\ny\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)

	_, err = LoadFile(filepath.Join(dir, "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed_cancellations.txt")
	require.NoError(t, os.WriteFile(path, []byte("bob\nalice\nbob\n"), 0644))

	ids, err := LoadList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, ids)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	_, err := Discover(dir)
	assert.ErrorIs(t, err, ErrNoExport)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pending_follow_requests.json"), []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "instagram_cancellation_progress.json"), []byte("{}"), 0644))

	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "pending_follow_requests.json", filepath.Base(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(""), 0644))

	path, err = Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.html"), path)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNoExport)
}
