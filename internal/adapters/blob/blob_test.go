package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/vigil/internal/adapters/blob"
)

type stubAPI struct {
	blobs map[string][]byte
	err   error
}

func (s *stubAPI) DownloadStream(ctx context.Context, container, name string, _ *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	var resp azblob.DownloadStreamResponse
	if s.err != nil {
		return resp, s.err
	}
	body, ok := s.blobs[container+"/"+name]
	if !ok {
		return resp, errors.New("missing")
	}
	resp.Body = io.NopCloser(strings.NewReader(string(body)))
	return resp, nil
}

func (s *stubAPI) UploadBuffer(ctx context.Context, container, name string, buf []byte, _ *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	if s.err != nil {
		return azblob.UploadBufferResponse{}, s.err
	}
	s.blobs[container+"/"+name] = append([]byte(nil), buf...)
	return azblob.UploadBufferResponse{}, nil
}

var _ blob.API = (*stubAPI)(nil)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri       string
		container string
		name      string
		wantErr   bool
	}{
		{uri: "blob://input/2024/rows.csv", container: "input", name: "2024/rows.csv"},
		{uri: "blob://rows.csv", container: "default", name: "rows.csv"},
		{uri: "blob://input/", wantErr: true},
		{uri: "/tmp/rows.csv", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.uri, func(t *testing.T) {
			container, name, err := blob.ParseURI(tc.uri, "default")
			if tc.wantErr {
				assert.ErrorIs(t, err, blob.ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.container, container)
			assert.Equal(t, tc.name, name)
		})
	}

	_, _, err := blob.ParseURI("blob://rows.csv", "")
	assert.ErrorIs(t, err, blob.ErrInvalidURI)
}

func TestStore_PutAndOpen(t *testing.T) {
	stub := &stubAPI{blobs: map[string][]byte{}}
	s := blob.NewWithAPI(stub, "results")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "blob://out.csv", []byte("a;b\n")))
	assert.Contains(t, stub.blobs, "results/out.csv")

	rc, err := s.Open(ctx, "blob://results/out.csv")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(body))
}

func TestStore_Errors(t *testing.T) {
	stub := &stubAPI{blobs: map[string][]byte{}, err: errors.New("forbidden")}
	s := blob.NewWithAPI(stub, "results")
	ctx := context.Background()

	_, err := s.Open(ctx, "blob://x.csv")
	assert.ErrorContains(t, err, "forbidden")
	assert.ErrorContains(t, s.Put(ctx, "blob://x.csv", nil), "forbidden")

	_, err = s.Open(ctx, "local.csv")
	assert.ErrorIs(t, err, blob.ErrInvalidURI)
}

func TestNewFromConnectionString(t *testing.T) {
	_, err := blob.NewFromConnectionString("not a connection string", "c")
	assert.Error(t, err)

	s, err := blob.NewFromConnectionString("DefaultEndpointsProtocol=https;AccountName=devstore;AccountKey=a2V5;EndpointSuffix=core.windows.net", "c")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
