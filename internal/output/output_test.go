package output

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"deprecdoc/internal/walker"
)

var batches = []walker.Batch{
	{File: "library/imp.rst", Records: []string{"imp", "imp"}},
	{File: "library/email.errors.rst", Records: []string{"email.errors:BoundaryError", "email.errors:MalformedHeaderDefect"}},
}

func render(t *testing.T, f Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, f)
	require.NoError(t, err)
	for _, b := range batches {
		require.NoError(t, w.Write(b))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestListFormat(t *testing.T) {
	want := "['imp', 'imp']\n['email.errors:BoundaryError', 'email.errors:MalformedHeaderDefect']\n"
	require.Equal(t, want, string(render(t, FormatList)))
}

func TestLinesFormat(t *testing.T) {
	want := "imp\nimp\n\nemail.errors:BoundaryError\nemail.errors:MalformedHeaderDefect\n"
	require.Equal(t, want, string(render(t, FormatLines)))
}

func TestJSONFormat(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(string(render(t, FormatJSON))), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"file":"library/imp.rst","records":["imp","imp"]}`, lines[0])
	var doc batchDoc
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	require.Equal(t, batches[1].Records, doc.Records)
}

func TestYAMLFormat(t *testing.T) {
	out := render(t, FormatYAML)
	require.Contains(t, string(out), "---\n")
	dec := yaml.NewDecoder(bytes.NewReader(out))
	var got []batchDoc
	for {
		var doc batchDoc
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, doc)
	}
	require.Len(t, got, 2)
	require.Equal(t, "library/email.errors.rst", got[1].File)
}

func TestMsgpackFormat(t *testing.T) {
	dec := msgpack.NewDecoder(bytes.NewReader(render(t, FormatMsgpack)))
	var first, second batchDoc
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	require.Equal(t, "library/imp.rst", first.File)
	require.Equal(t, batches[1].Records, second.Records)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	require.ErrorContains(t, err, "list|lines|json|yaml|msgpack")
}

func TestPyList(t *testing.T) {
	tests := map[string][]string{
		"[]":                   nil,
		"['a']":                {"a"},
		`["it's"]`:             {"it's"},
		`['both \' and "']`:    {`both ' and "`},
		`['back\\slash\ttab']`: {"back\\slash\ttab"},
	}
	for want, in := range tests {
		if got := PyList(in); got != want {
			t.Errorf("PyList(%q) = %s, want %s", in, got, want)
		}
	}
}
