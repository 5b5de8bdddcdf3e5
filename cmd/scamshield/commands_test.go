package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/scam-shield/backend/internal/mock"
	"github.com/zhouzirui/scam-shield/backend/internal/model/fraud"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCategoriesText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := &categoriesCommander{advice: true}
	require.NoError(t, c.run(&buf, fraud.Seed(), ""))

	out := buf.String()
	assert.Contains(t, out, "[bank-security]")
	assert.Contains(t, out, "1. ")
}

func TestCategoriesSingleJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := &categoriesCommander{asJSON: true}
	require.NoError(t, c.run(&buf, fraud.Seed(), "phishing-sms"))

	var items []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "MessageSquareWarning", items[0]["icon"])
}

func TestCategoriesUnknownID(t *testing.T) {
	t.Parallel()

	c := &categoriesCommander{}
	err := c.run(&bytes.Buffer{}, fraud.Seed(), "nope")
	require.Error(t, err)
}

func TestAnalyzeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	svc := imagerisk.NewService(&mock.Evaluator{
		EvaluateFn: func(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
			return "**Риск высокий**", nil
		},
	})

	var buf bytes.Buffer
	c := &analyzeCommander{html: true}
	require.NoError(t, c.run(context.Background(), &buf, svc, path))
	assert.Contains(t, buf.String(), "<strong>Риск высокий</strong>")
}

func TestAnalyzeFileTooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(path, append(append([]byte{}, pngHeader...), make([]byte, 64)...), 0o600))

	svc := imagerisk.NewService(&mock.Evaluator{
		EvaluateFn: func(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
			t.Fatal("evaluator must not be called")
			return "", nil
		},
	}, imagerisk.WithMaxBytes(16))

	err := (&analyzeCommander{}).run(context.Background(), &bytes.Buffer{}, svc, path)
	require.Error(t, err)
	assert.Equal(t, imagerisk.OversizeMessage, err.Error())
}

func TestRunServerStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "categories", "analyze"})
	assert.NotNil(t, root.Flags().Lookup("addr"))
}
