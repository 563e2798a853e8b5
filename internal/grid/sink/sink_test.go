package sink_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fuelgrid/internal/grid/sink"
)

func TestDirSinkWritesFile(t *testing.T) {
	as := assert.New(t)
	dir := filepath.Join(t.TempDir(), "exports")
	s := sink.NewDirSink(dir)

	require.NoError(t, s.Emit(context.Background(), "sales.csv", "text/csv;charset=utf-8", []byte("a,b\n1,2")))

	data, err := os.ReadFile(filepath.Join(dir, "sales.csv"))
	as.NoError(err)
	as.Equal("a,b\n1,2", string(data))

	entries, err := os.ReadDir(dir)
	as.NoError(err)
	as.Len(entries, 1, "temp file must be cleaned up")
}

func TestDirSinkTimestamp(t *testing.T) {
	dir := t.TempDir()
	s := &sink.DirSink{
		Dir:       dir,
		Timestamp: true,
		Now:       func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC) },
	}
	require.NoError(t, s.Emit(context.Background(), "tanks.csv", "", []byte("x")))
	_, err := os.Stat(filepath.Join(dir, "tanks_20240309_140506.csv"))
	assert.NoError(t, err)
}

func TestDirSinkRejectsTraversal(t *testing.T) {
	s := sink.NewDirSink(t.TempDir())
	for _, name := range []string{"../escape.csv", "a/b.csv", "..", ""} {
		err := s.Emit(context.Background(), name, "", []byte("x"))
		assert.ErrorIs(t, err, sink.ErrInvalidFilename, name)
	}
}

func TestDirSinkHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sink.NewDirSink(t.TempDir()).Emit(ctx, "x.csv", "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := sink.WriterSink{W: &buf}
	require.NoError(t, s.Emit(context.Background(), "ignored.csv", "", []byte("hello")))
	assert.Equal(t, "hello", buf.String())
}

func TestMemorySink(t *testing.T) {
	as := assert.New(t)
	var s sink.MemorySink

	_, ok := s.Last()
	as.False(ok)

	data := []byte("one")
	as.NoError(s.Emit(context.Background(), "a.csv", "text/csv", data))
	data[0] = 'X'
	as.NoError(s.Emit(context.Background(), "b.csv", "text/csv", []byte("two")))

	files := s.Files()
	as.Len(files, 2)
	as.Equal("one", string(files[0].Data), "emitted data must be copied")
	last, ok := s.Last()
	as.True(ok)
	as.Equal("b.csv", last.Name)
}
