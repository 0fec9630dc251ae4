package azure

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakit-io/datakit/storage"
)

// fakeAPI scripts blob operations without the network.
type fakeAPI struct {
	uploads   int
	downloads int
	deletes   int

	uploadErrs   []error
	downloadErrs []error
	deleteErr    error
	listErr      error

	blobs map[string][]byte
	names []string
}

func (f *fakeAPI) UploadBuffer(_ context.Context, containerName, blobName string, buffer []byte, _ *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.uploads++
	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		if err != nil {
			return azblob.UploadBufferResponse{}, err
		}
	}
	if f.blobs == nil {
		f.blobs = map[string][]byte{}
	}
	f.blobs[containerName+"/"+blobName] = append([]byte(nil), buffer...)
	return azblob.UploadBufferResponse{}, nil
}

func (f *fakeAPI) DownloadStream(_ context.Context, containerName, blobName string, _ *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	f.downloads++
	if len(f.downloadErrs) > 0 {
		err := f.downloadErrs[0]
		f.downloadErrs = f.downloadErrs[1:]
		if err != nil {
			return azblob.DownloadStreamResponse{}, err
		}
	}
	data, ok := f.blobs[containerName+"/"+blobName]
	if !ok {
		return azblob.DownloadStreamResponse{}, notFoundErr()
	}
	resp := azblob.DownloadStreamResponse{}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func (f *fakeAPI) DeleteBlob(_ context.Context, containerName, blobName string, _ *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error) {
	f.deletes++
	if f.deleteErr != nil {
		return azblob.DeleteBlobResponse{}, f.deleteErr
	}
	if _, ok := f.blobs[containerName+"/"+blobName]; !ok {
		return azblob.DeleteBlobResponse{}, notFoundErr()
	}
	delete(f.blobs, containerName+"/"+blobName)
	return azblob.DeleteBlobResponse{}, nil
}

func (f *fakeAPI) NewListBlobsFlatPager(_ string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse] {
	prefix := ""
	if o != nil && o.Prefix != nil {
		prefix = *o.Prefix
	}
	done := false
	return runtime.NewPager(runtime.PagingHandler[azblob.ListBlobsFlatResponse]{
		More: func(azblob.ListBlobsFlatResponse) bool { return !done },
		Fetcher: func(context.Context, *azblob.ListBlobsFlatResponse) (azblob.ListBlobsFlatResponse, error) {
			done = true
			if f.listErr != nil {
				return azblob.ListBlobsFlatResponse{}, f.listErr
			}
			var items []*container.BlobItem
			for _, name := range f.names {
				if prefix == "" || len(name) >= len(prefix) && name[:len(prefix)] == prefix {
					n := name
					items = append(items, &container.BlobItem{Name: &n})
				}
			}
			resp := azblob.ListBlobsFlatResponse{}
			resp.Segment = &container.BlobFlatListSegment{BlobItems: items}
			return resp, nil
		},
	})
}

func (f *fakeAPI) CreateContainer(context.Context, string, *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	return azblob.CreateContainerResponse{}, nil
}

func notFoundErr() error {
	return &azcore.ResponseError{StatusCode: 404, ErrorCode: string(bloberror.BlobNotFound)}
}

func transientErr() error {
	return &azcore.ResponseError{StatusCode: 503, ErrorCode: "ServerBusy"}
}

func testBackend(api blobAPI) *Backend {
	return newFromAPI(api, Config{
		Containers: map[storage.Role]string{
			storage.RoleRaw:       "raw-data",
			storage.RoleProcessed: "processed-data",
		},
		Retry: storage.RetryPolicy{
			MaxRetries: 3,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	})
}

func TestWriteRead(t *testing.T) {
	api := &fakeAPI{}
	b := testBackend(api)
	ctx := context.Background()
	loc := storage.Location{Role: storage.RoleRaw, Path: "batch/in.csv"}

	require.NoError(t, b.WriteBytes(ctx, loc, []byte("a;b\n")))

	got, err := b.ReadBytes(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n", string(got))
}

func TestUnmappedRole(t *testing.T) {
	b := testBackend(&fakeAPI{})
	err := b.WriteBytes(context.Background(), storage.Location{Role: "unmapped", Path: "x"}, nil)
	assert.ErrorIs(t, err, storage.ErrConfiguration)
}

func TestRead_Missing(t *testing.T) {
	b := testBackend(&fakeAPI{})
	_, err := b.ReadBytes(context.Background(), storage.Location{Role: storage.RoleRaw, Path: "gone.csv"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	api := &fakeAPI{uploadErrs: []error{transientErr(), transientErr()}}
	b := testBackend(api)

	err := b.WriteBytes(context.Background(), storage.Location{Role: storage.RoleRaw, Path: "x.csv"}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 3, api.uploads)
}

func TestRetry_Exhausted(t *testing.T) {
	api := &fakeAPI{uploadErrs: []error{transientErr(), transientErr(), transientErr(), transientErr(), transientErr()}}
	b := testBackend(api)

	err := b.WriteBytes(context.Background(), storage.Location{Role: storage.RoleRaw, Path: "x.csv"}, []byte("x"))
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.Equal(t, 4, api.uploads, "initial attempt plus three retries")
}

func TestRetry_NonTransientFailsImmediately(t *testing.T) {
	forbidden := &azcore.ResponseError{StatusCode: 403, ErrorCode: "AuthorizationFailure"}
	api := &fakeAPI{uploadErrs: []error{forbidden}}
	b := testBackend(api)

	err := b.WriteBytes(context.Background(), storage.Location{Role: storage.RoleRaw, Path: "x.csv"}, []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrBackendUnavailable)
	assert.Equal(t, 1, api.uploads)
}

func TestExists_NeverFails(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		api := &fakeAPI{names: []string{"dir/a.csv"}}
		b := testBackend(api)
		assert.True(t, b.Exists(ctx, storage.Location{Role: storage.RoleRaw, Path: "dir/a.csv"}))
	})

	t.Run("absent", func(t *testing.T) {
		b := testBackend(&fakeAPI{})
		assert.False(t, b.Exists(ctx, storage.Location{Role: storage.RoleRaw, Path: "dir/a.csv"}))
	})

	t.Run("listing error reported as false", func(t *testing.T) {
		b := testBackend(&fakeAPI{listErr: transientErr()})
		assert.False(t, b.Exists(ctx, storage.Location{Role: storage.RoleRaw, Path: "dir/a.csv"}))
	})

	t.Run("unmapped role reported as false", func(t *testing.T) {
		b := testBackend(&fakeAPI{})
		assert.False(t, b.Exists(ctx, storage.Location{Role: "unmapped", Path: "a.csv"}))
	})
}

func TestList(t *testing.T) {
	api := &fakeAPI{names: []string{
		"reports/b.csv",
		"reports/a.csv",
		"reports/sub/nested.csv",
		"reports/c.json",
		"other/d.csv",
	}}
	b := testBackend(api)
	ctx := context.Background()
	dir := storage.Location{Role: storage.RoleProcessed, Path: "reports"}

	names, err := b.List(ctx, dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv", "c.json"}, names, "sorted, non-recursive")

	names, err = b.List(ctx, dir, "*.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{blobs: map[string][]byte{"raw-data/x.csv": []byte("x")}}
	b := testBackend(api)
	ctx := context.Background()

	require.NoError(t, b.Delete(ctx, storage.Location{Role: storage.RoleRaw, Path: "x.csv"}))
	assert.ErrorIs(t, b.Delete(ctx, storage.Location{Role: storage.RoleRaw, Path: "x.csv"}), storage.ErrNotFound)
}
