package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/cmdguard/internal/config"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

func TestLocalStore_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte("{}"), 0o644))

	store, err := New(config.ArtifactStoreConfig{Type: "LOCAL", Dir: dir})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	data, err := ReadAll(context.Background(), store, "model.json")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))

	_, err = store.Open(context.Background(), "missing.json")
	require.Error(t, err)
	require.True(t, appErr.IsNotFound(err))
}

func TestLocalStore_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	store := NewLocal(inner)
	_, err := store.Open(context.Background(), "../secret.txt")
	require.Error(t, err)
	require.True(t, appErr.IsNotFound(err))
}

func TestLocalStore_EmptyDirUsesPlainPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("prompt,is_malicious\n"), 0o644))

	data, err := ReadAll(context.Background(), NewLocal(""), path)
	require.NoError(t, err)
	require.Contains(t, string(data), "prompt")
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(config.ArtifactStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.ArtifactStoreConfig{})
	require.Error(t, err)
}

type fakeGetter struct {
	objects map[string]string
	lastKey string
}

func (f *fakeGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(params.Key)
	body, ok := f.objects[f.lastKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3Store_Open(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"models/clf.json": "{}"}}
	store := &s3Store{client: getter, bucket: "artifacts", prefix: "models"}

	data, err := ReadAll(context.Background(), store, "/clf.json")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
	require.Equal(t, "models/clf.json", getter.lastKey)

	_, err = store.Open(context.Background(), "nope.json")
	require.True(t, appErr.IsNotFound(err))
}

func TestBuildEndpoint(t *testing.T) {
	require.Equal(t, "https://s3.local:9000", buildEndpoint("s3.local:9000", true))
	require.Equal(t, "http://s3.local:9000", buildEndpoint("s3.local:9000", false))
	require.Equal(t, "https://x.example", buildEndpoint("https://x.example", false))
}
