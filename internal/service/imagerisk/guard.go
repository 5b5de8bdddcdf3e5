// Package imagerisk guards and runs screenshot analysis: it enforces the
// upload limit, unwraps data URIs, decides the MIME type and only then hands
// the bytes to the remote evaluator.
package imagerisk

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
)

// DefaultMaxBytes is the largest accepted image.
const DefaultMaxBytes int64 = 4 * 1024 * 1024

// User-facing alert texts.
const (
	OversizeMessage = "Файл слишком большой. Максимальный размер 4MB."
	FailureMessage  = "Не удалось проанализировать изображение. Попробуйте другое фото или опишите ситуацию в чате."
)

// Image is a validated upload ready for evaluation.
type Image struct {
	Data     []byte
	MIMEType string
}

// StripEnvelope removes a "data:<mime>;base64," prefix. Input without a comma,
// or with nothing after it, is returned unchanged.
func StripEnvelope(s string) string {
	_, rest, ok := strings.Cut(s, ",")
	if !ok {
		return s
	}
	payload, _, _ := strings.Cut(rest, ",")
	if payload == "" {
		return s
	}
	return payload
}

// envelopeType returns the declared MIME type of a data URI, if any.
func envelopeType(s string) string {
	head, _, ok := strings.Cut(s, ",")
	if !ok {
		return ""
	}
	head, found := strings.CutPrefix(head, "data:")
	if !found {
		return ""
	}
	mime, _, _ := strings.Cut(head, ";")
	return strings.TrimSpace(mime)
}

// Guard validates uploads before they reach the evaluator.
type Guard struct {
	maxBytes int64
}

// NewGuard returns a Guard. A non-positive limit selects DefaultMaxBytes.
func NewGuard(maxBytes int64) *Guard {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Guard{maxBytes: maxBytes}
}

// MaxBytes returns the configured limit.
func (g *Guard) MaxBytes() int64 { return g.maxBytes }

// CheckSize rejects sizes above the limit.
func (g *Guard) CheckSize(n int64) error {
	if n > g.maxBytes {
		return fault.ErrImageTooLarge
	}
	return nil
}

// Prepare validates raw bytes. declared is the client-supplied content type
// and is trusted only when sniffing is inconclusive.
func (g *Guard) Prepare(data []byte, declared string) (Image, error) {
	if len(data) == 0 {
		return Image{}, fault.ErrEmptyImage
	}
	if err := g.CheckSize(int64(len(data))); err != nil {
		return Image{}, err
	}
	mime, err := DetectMIME(data, declared)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// PrepareDataURI decodes a data URI or bare base64 payload and validates it.
func (g *Guard) PrepareDataURI(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, fault.ErrEmptyImage
	}
	payload := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, StripEnvelope(s))

	// reject early without allocating the decoded buffer
	if err := g.CheckSize(int64(base64.RawStdEncoding.DecodedLen(len(strings.TrimRight(payload, "="))))); err != nil {
		return Image{}, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return Image{}, fault.ErrBadEncoding
		}
	}
	return g.Prepare(data, envelopeType(s))
}

// DetectMIME sniffs data. When the sniffed type is not conclusive the declared
// type is used if it names an image. Anything else is rejected.
func DetectMIME(data []byte, declared string) (string, error) {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	if sniffed == "application/octet-stream" {
		declared = strings.ToLower(strings.TrimSpace(declared))
		if mime, _, _ := strings.Cut(declared, ";"); strings.HasPrefix(mime, "image/") {
			return strings.TrimSpace(mime), nil
		}
	}
	return "", fault.ErrNotAnImage
}
