// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tfctl/snapdiff/internal/source"
)

const report = "--- a\n+++ b\n@@ -1 +1 @@\n-old\n+new\n"

var diff = Difference{Target: "/live/f", From: "a", To: "b", Report: report}

var records = []source.Record{
	{Location: "/snap/1/f", ModTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Size: 2048},
	{Location: "s3://b/f?versionId=2", ModTime: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), Size: 4, Digest: "abc"},
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{}, Options{})
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestText_Difference(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("text", &buf, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Difference(diff))
	assert.Equal(t, "Files a and b differ\n"+report, buf.String())
}

func TestText_DifferenceColor(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("text", &buf, Options{
		Color: true,
		Palette: Palette{
			Added:   lipgloss.Color("#00ff00"),
			Removed: lipgloss.Color("#ff0000"),
		},
	})
	require.NoError(t, err)

	require.NoError(t, r.Difference(diff))
	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "+new")
	assert.Contains(t, out, "-old")
	assert.Equal(t, strings.Count("Files a and b differ\n"+report, "\n"), strings.Count(out, "\n"))
}

func TestText_Versions(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("", &buf, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Versions("/live/f", records))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "/live/f\n"))
	assert.Contains(t, out, "2026-03-01T12:00:00Z")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "ago")
	assert.Contains(t, out, "s3://b/f?versionId=2")
	assert.Less(t, strings.Index(out, "/snap/1/f"), strings.Index(out, "s3://"))

	buf.Reset()
	require.NoError(t, r.Versions("/live/g", nil))
	assert.Equal(t, "/live/g\n  no versions\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("json", &buf, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Difference(Difference{Target: "/live/f", From: "a<b", To: "b", Report: report}))
	require.NoError(t, r.Versions("/live/f", records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"from":"a<b"`)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "diff", first["event"])
	assert.Equal(t, "Files a<b and b differ", first["notice"])
	assert.Equal(t, report, first["report"])

	var second event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "versions", second.Event)
	require.Len(t, second.Versions, 2)
	assert.Equal(t, "abc", second.Versions[1].Digest)
	assert.Equal(t, int64(2048), second.Versions[0].Size)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("yaml", &buf, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Difference(diff))
	require.NoError(t, r.Versions("/live/f", nil))

	dec := yaml.NewDecoder(strings.NewReader(buf.String()))
	var docs []event
	for {
		var e event
		if err := dec.Decode(&e); err != nil {
			break
		}
		docs = append(docs, e)
	}
	require.Len(t, docs, 2)
	assert.Equal(t, "diff", docs[0].Event)
	assert.Equal(t, report, docs[0].Report)
	assert.Equal(t, "versions", docs[1].Event)
	assert.Empty(t, docs[1].Versions)
}

func TestUseColor(t *testing.T) {
	assert.True(t, UseColor("always", nil))
	assert.False(t, UseColor("never", os.Stdout))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, UseColor("auto", os.Stdout))

	t.Setenv("NO_COLOR", "")
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, UseColor("auto", f), "regular files are not terminals")
}

func TestOptionsStamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.UTC, Options{}.stamp(at).Location())
	assert.Equal(t, time.Local, Options{Local: true}.stamp(at).Location())
}
