package blob_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/infrastructure/blob"
)

// ──────────────────────────────────────────────────────────────────────────────
// Transporte S3 falso
// ──────────────────────────────────────────────────────────────────────────────

type storedObject struct {
	body        []byte
	contentType string
	lote        string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]storedObject
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(req.URL.Path, "/")
	empty := func(status int) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
	}
	switch req.Method {
	case http.MethodHead:
		if _, ok := f.objects[key]; ok {
			return empty(http.StatusOK), nil
		}
		return empty(http.StatusNotFound), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = storedObject{
			body:        body,
			contentType: req.Header.Get("Content-Type"),
			lote:        req.Header.Get("X-Amz-Meta-Lote"),
		}
		resp := empty(http.StatusOK)
		resp.Header.Set("ETag", `"etag"`)
		return resp, nil
	}
	return empty(http.StatusNotImplemented), nil
}

func newTestArchive(t *testing.T) (*blob.S3Archive, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string]storedObject)}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://archivo.s3.local")
	})
	return blob.NewS3ArchiveWithClient(client, "fichas", "lotes"), fake
}

// ──────────────────────────────────────────────────────────────────────────────
// Archive
// ──────────────────────────────────────────────────────────────────────────────

func TestS3Archive_SubePDFConMetadatos(t *testing.T) {
	archive, fake := newTestArchive(t)

	err := archive.Archive(context.Background(), "L-001/20250310T090000Z-ficha-L-001.pdf",
		[]byte("%PDF-1.3 ficha"), map[string]string{"lote": "L-001"})
	require.NoError(t, err)

	obj, ok := fake.objects["fichas/lotes/L-001/20250310T090000Z-ficha-L-001.pdf"]
	require.True(t, ok, "la clave incluye bucket y prefijo")
	assert.Equal(t, "application/pdf", obj.contentType)
	assert.Equal(t, "L-001", obj.lote)
	assert.Contains(t, string(obj.body), "%PDF-1.3 ficha")
}

func TestS3Archive_NoSobrescribe(t *testing.T) {
	archive, _ := newTestArchive(t)
	ctx := context.Background()

	require.NoError(t, archive.Archive(ctx, "L-001/a.pdf", []byte("%PDF"), nil))
	err := archive.Archive(ctx, "L-001/a.pdf", []byte("%PDF otra"), nil)
	assert.ErrorIs(t, err, blob.ErrAlreadyArchived)
}
