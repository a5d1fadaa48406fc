// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package differ

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memReader serves contents from a map and counts reads.
type memReader struct {
	files map[string]string
	reads map[string]int
}

func newMemReader(files map[string]string) *memReader {
	return &memReader{files: files, reads: map[string]int{}}
}

func (m *memReader) ReadAll(_ context.Context, name string) ([]byte, error) {
	m.reads[name]++
	s, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

func loc(name string) Location { return Location{Name: name} }

func TestCompare_Identical(t *testing.T) {
	r := newMemReader(map[string]string{"a": "x\ny\n", "b": "x\ny\n"})
	e := New(r, Options{Context: -1})

	res, err := e.Compare(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.False(t, res.Differs)
	assert.Empty(t, res.Report)
	assert.Equal(t, "a", res.From)
	assert.Equal(t, "b", res.To)
}

func TestCompare_Self(t *testing.T) {
	r := newMemReader(map[string]string{"a": "anything\n"})
	e := New(r, Options{Context: -1})

	res, err := e.Compare(context.Background(), loc("a"), loc("a"))
	require.NoError(t, err)
	assert.False(t, res.Differs)
	assert.Empty(t, res.Report)
	assert.Equal(t, 1, r.reads["a"])
}

func TestCompare_Unified(t *testing.T) {
	r := newMemReader(map[string]string{
		"old": "one\ntwo\nthree\nfour\nfive\nsix\nseven\n",
		"new": "one\ntwo\nthree\nFOUR\nfive\nsix\nseven\neight\n",
	})
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(r, Options{Context: 1})

	res, err := e.Compare(context.Background(), Location{Name: "old", ModTime: when}, loc("new"))
	require.NoError(t, err)
	assert.True(t, res.Differs)

	lines := strings.Split(res.Report, "\n")
	assert.Equal(t, "--- old\t2026-03-01 12:00:00.000000000 +0000", lines[0])
	assert.Equal(t, "+++ new", lines[1])
	assert.Contains(t, lines, "-four")
	assert.Contains(t, lines, "+FOUR")
	assert.Contains(t, lines, "+eight")
	assert.NotContains(t, lines, " one", "context is limited to one line")
}

func TestCompare_DefaultContext(t *testing.T) {
	r := newMemReader(map[string]string{
		"old": "1\n2\n3\n4\n5\n6\n7\n8\n9\n",
		"new": "1\n2\n3\n4\nV\n6\n7\n8\n9\n",
	})
	e := New(r, Options{Context: -1})

	res, err := e.Compare(context.Background(), loc("old"), loc("new"))
	require.NoError(t, err)
	assert.Contains(t, res.Report, "@@ -2,7 +2,7 @@")
}

func TestCompare_NoTrailingNewline(t *testing.T) {
	r := newMemReader(map[string]string{"a": "a\nb", "b": "a\nb\n"})
	e := New(r, Options{Context: -1})

	res, err := e.Compare(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.True(t, res.Differs)
	assert.Contains(t, res.Report, "-b\n\\ No newline at end of file\n+b\n")
}

func TestCompare_Binary(t *testing.T) {
	r := newMemReader(map[string]string{"a": "\x00\x01", "b": "\x00\x02"})
	e := New(r, Options{Context: -1})

	res, err := e.Compare(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.True(t, res.Differs)
	assert.Equal(t, "Binary files a and b differ\n", res.Report)
}

func TestCompare_Oversize(t *testing.T) {
	r := newMemReader(map[string]string{"a": "0123456789", "b": "abcdefghij"})
	e := New(r, Options{Context: -1, MaxBytes: 15})

	res, err := e.Compare(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.True(t, res.Differs)
	assert.Contains(t, res.Report, Omitted)
}

func TestCompare_JSON(t *testing.T) {
	r := newMemReader(map[string]string{
		"a": `{"name": "x", "count": 1}`,
		"b": `{"name": "x", "count": 2}`,
		"c": `{ "name": "x",   "count": 1 }`,
		"t": "not json\n",
	})
	e := New(r, Options{Context: -1, JSON: true})

	res, err := e.Compare(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.True(t, res.Differs)
	assert.Contains(t, res.Report, `"count": 1`)
	assert.Contains(t, res.Report, `"count": 2`)
	assert.NotContains(t, res.Report, "@@")

	res, err = e.Compare(context.Background(), loc("a"), loc("c"))
	require.NoError(t, err)
	assert.True(t, res.Differs, "formatting changes still differ")
	assert.Contains(t, res.Report, "@@", "structurally equal documents use the unified diff")

	res, err = e.Compare(context.Background(), loc("a"), loc("t"))
	require.NoError(t, err)
	assert.Contains(t, res.Report, "+not json")
}

func TestCompare_Unreadable(t *testing.T) {
	r := newMemReader(map[string]string{"a": "x"})
	e := New(r, Options{Context: -1})

	_, err := e.Compare(context.Background(), loc("a"), loc("missing"))
	assert.ErrorIs(t, err, ErrLocationUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "missing")

	_, err = e.Compare(context.Background(), loc("missing"), loc("a"))
	assert.ErrorIs(t, err, ErrLocationUnreadable)
}

func TestCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(newMemReader(nil), Options{})

	_, err := e.Compare(ctx, loc("a"), loc("b"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrLocationUnreadable))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{}, splitLines(nil))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines([]byte("a\nb\n")))
	assert.Equal(t, []string{"a\n", "b\n" + noNewline}, splitLines([]byte("a\nb")))
}
