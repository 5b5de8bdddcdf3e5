package imagerisk_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStripEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"png data uri", "data:image/png;base64,AAAA", "AAAA"},
		{"jpeg data uri", "data:image/jpeg;base64,/9j/4AAQ", "/9j/4AAQ"},
		{"bare payload", "AAAA", "AAAA"},
		{"trailing comma", "data:image/png;base64,", "data:image/png;base64,"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, imagerisk.StripEnvelope(tt.in))
		})
	}
}

func TestStripEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	raw := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{7}, 32)...)
	encoded := base64.StdEncoding.EncodeToString(raw)
	got, err := base64.StdEncoding.DecodeString(imagerisk.StripEnvelope("data:image/png;base64," + encoded))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	mime, err := imagerisk.DetectMIME(pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	mime, err = imagerisk.DetectMIME([]byte("\xff\xd8\xff\xe0\x00\x10JFIF"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime, "sniffed type wins over declared type")

	mime, err = imagerisk.DetectMIME([]byte{0, 0, 0}, "image/heic")
	require.NoError(t, err)
	assert.Equal(t, "image/heic", mime, "declared image type is used when sniffing is inconclusive")

	_, err = imagerisk.DetectMIME([]byte{0, 0, 0}, "application/pdf")
	assert.ErrorIs(t, err, fault.ErrNotAnImage)

	_, err = imagerisk.DetectMIME([]byte("hello, this is plain text"), "image/png")
	assert.ErrorIs(t, err, fault.ErrNotAnImage)
}

func TestGuardPrepare(t *testing.T) {
	t.Parallel()

	g := imagerisk.NewGuard(16)

	_, err := g.Prepare(nil, "image/png")
	assert.ErrorIs(t, err, fault.ErrEmptyImage)

	_, err = g.Prepare(bytes.Repeat([]byte{1}, 17), "image/png")
	assert.ErrorIs(t, err, fault.ErrImageTooLarge)

	img, err := g.Prepare(pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestGuardDefaultLimit(t *testing.T) {
	t.Parallel()

	g := imagerisk.NewGuard(0)
	assert.Equal(t, imagerisk.DefaultMaxBytes, g.MaxBytes())
	assert.NoError(t, g.CheckSize(4*1024*1024))
	assert.ErrorIs(t, g.CheckSize(4*1024*1024+1), fault.ErrImageTooLarge)
}

func TestGuardPrepareDataURI(t *testing.T) {
	t.Parallel()

	g := imagerisk.NewGuard(imagerisk.DefaultMaxBytes)

	img, err := g.PrepareDataURI("data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)

	img, err = g.PrepareDataURI(base64.StdEncoding.EncodeToString(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = g.PrepareDataURI("data:image/png;base64,!!!not base64!!!")
	assert.ErrorIs(t, err, fault.ErrBadEncoding)

	_, err = g.PrepareDataURI("   ")
	assert.ErrorIs(t, err, fault.ErrEmptyImage)
}

func TestGuardPrepareDataURIRejectsOversize(t *testing.T) {
	t.Parallel()

	g := imagerisk.NewGuard(8)
	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 9))
	_, err := g.PrepareDataURI("data:image/png;base64," + big)
	assert.ErrorIs(t, err, fault.ErrImageTooLarge)
}
