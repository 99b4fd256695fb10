package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

var payload = []byte{0x3E, 0x42, 0xD3, 0xFE, 0x76} // LD A,$42; OUT ($FE),A; HALT

func compress(t *testing.T, ext string) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch ext {
	case ".gz":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".zst":
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		buf.Write(enc.EncodeAll(payload, nil))
		require.NoError(t, enc.Close())
	case ".xz":
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".br":
		w := brotli.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".lz4":
		w := lz4.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".zip":
		w := zip.NewWriter(&buf)
		_, err := w.Create("images/")
		require.NoError(t, err)
		f, err := w.Create("images/prog.com")
		require.NoError(t, err)
		_, err = f.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		t.Fatalf("no compressor for %s", ext)
	}
	return buf.Bytes()
}

func TestDecodeByExtension(t *testing.T) {
	for _, ext := range []string{".gz", ".zst", ".xz", ".br", ".lz4", ".zip"} {
		t.Run(ext, func(t *testing.T) {
			out, err := Decode("prog.com"+ext, compress(t, ext))
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestDecodeUnknownExtensionIsRaw(t *testing.T) {
	out, err := Decode("prog.com", payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PROG.COM.GZ")
	require.NoError(t, os.WriteFile(path, compress(t, ".gz"), 0o644))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	_, err = Load(filepath.Join(dir, "missing.com"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSevenZip(t *testing.T) {
	out, err := Load(filepath.Join("testdata", "hello.7z"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3E, 0x42, 0x76}, out)
}

func TestEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err := w.Create("only-a-dir/")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Decode("empty.zip", buf.Bytes())
	assert.ErrorIs(t, err, ErrEmptyArchive)
}

func TestCorruptInput(t *testing.T) {
	assert := assert.New(t)
	for _, name := range []string{"bad.gz", "bad.xz", "bad.zip", "bad.7z"} {
		_, err := Decode(name, []byte("definitely not compressed"))
		assert.Error(err, name)
	}
}

// A structurally valid header that omits SubStreamsInfo.
var sevenZipNoSubStreams = []byte{
	0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c, 0x00, 0x04, 0xe1, 0x0d, 0x8c, 0x37, 0x03, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x2e, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xc6, 0xb4, 0x88, 0x86,
	0x3e, 0x42, 0x76, 0x01, 0x04, 0x06, 0x00, 0x01, 0x09, 0x03, 0x00, 0x07, 0x0b, 0x01, 0x00, 0x01,
	0x01, 0x00, 0x0c, 0x03, 0x00, 0x00, 0x05, 0x01, 0x11, 0x15, 0x00, 0x68, 0x00, 0x65, 0x00, 0x6c,
	0x00, 0x6c, 0x00, 0x6f, 0x00, 0x2e, 0x00, 0x63, 0x00, 0x6f, 0x00, 0x6d, 0x00, 0x00, 0x00, 0x00,
	0x00,
}

func TestMalformedSevenZipIsAnError(t *testing.T) {
	var out []byte
	var err error
	require.NotPanics(t, func() {
		out, err = Decode("broken.7z", sevenZipNoSubStreams)
	})
	assert.Nil(t, out)
	assert.Error(t, err)
}
