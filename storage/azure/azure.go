// Package azure implements the storage backend on Azure Blob Storage.
//
// Roles map to containers through an explicit mapping; an unmapped role
// is a configuration error rather than an implicit container name.
// Transient failures (throttling, 5xx, timeouts) are retried with
// exponential backoff per the configured policy; non-transient failures
// fail immediately.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/cenkalti/backoff/v4"

	"github.com/datakit-io/datakit/logger"
	"github.com/datakit-io/datakit/metrics"
	"github.com/datakit-io/datakit/storage"
)

const backendName = "azure"

// Config holds the remote backend settings.
type Config struct {
	// ConnectionString authenticates with a storage account connection
	// string. Takes precedence over AccountURL.
	ConnectionString string

	// AccountURL authenticates with the default Azure credential chain
	// (environment, workload identity, managed identity, CLI).
	AccountURL string

	// Containers maps roles to container names. A role without an entry
	// cannot be addressed.
	Containers map[storage.Role]string

	// EnsureContainers creates missing mapped containers at startup.
	// Creation failures are logged and ignored.
	EnsureContainers bool

	// Retry bounds retries of transient failures. The zero value means
	// storage.DefaultRetryPolicy.
	Retry storage.RetryPolicy
}

// blobAPI is the subset of *azblob.Client the backend uses.
type blobAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
	NewListBlobsFlatPager(containerName string, o *azblob.ListBlobsFlatOptions) *runtime.Pager[azblob.ListBlobsFlatResponse]
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
}

// Backend is the Azure Blob implementation of storage.Backend.
type Backend struct {
	api    blobAPI
	cfg    Config
	policy storage.RetryPolicy
}

var _ storage.Backend = (*Backend)(nil)

// New connects to the storage account and verifies connectivity before
// returning. An unreachable account is reported as
// storage.ErrBackendUnavailable at construction, not on first use.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	var client *azblob.Client
	var err error
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountURL != "":
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err == nil {
			client, err = azblob.NewClient(cfg.AccountURL, cred, nil)
		}
	default:
		return nil, fmt.Errorf("%w: neither connection string nor account URL configured", storage.ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	if _, err := client.ServiceClient().GetProperties(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: storage account unreachable: %v", storage.ErrBackendUnavailable, err)
	}

	b := newFromAPI(client, cfg)
	if cfg.EnsureContainers {
		b.ensureContainers(ctx)
	}
	return b, nil
}

func newFromAPI(api blobAPI, cfg Config) *Backend {
	policy := cfg.Retry
	if policy == (storage.RetryPolicy{}) {
		policy = storage.DefaultRetryPolicy()
	}
	return &Backend{api: api, cfg: cfg, policy: policy}
}

// ensureContainers creates every mapped container, ignoring "already
// exists" and logging anything else.
func (b *Backend) ensureContainers(ctx context.Context) {
	for role, name := range b.cfg.Containers {
		_, err := b.api.CreateContainer(ctx, name, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			logger.Warn("container provisioning failed",
				"role", string(role), "container", name, "error", err)
		}
	}
}

// WriteBytes uploads data to the role's container.
func (b *Backend) WriteBytes(ctx context.Context, loc storage.Location, data []byte) (err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "write", time.Since(start), err) }()

	container, err := b.container(loc.Role)
	if err != nil {
		return err
	}
	err = b.retry(ctx, "write", func() error {
		_, upErr := b.api.UploadBuffer(ctx, container, loc.Path, data, nil)
		return upErr
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", loc, err)
	}
	metrics.RecordBytesWritten(backendName, len(data))
	return nil
}

// ReadBytes downloads the blob at loc.
func (b *Backend) ReadBytes(ctx context.Context, loc storage.Location) (data []byte, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "read", time.Since(start), err) }()

	container, err := b.container(loc.Role)
	if err != nil {
		return nil, err
	}
	err = b.retry(ctx, "read", func() error {
		resp, dlErr := b.api.DownloadStream(ctx, container, loc.Path, nil)
		if dlErr != nil {
			return dlErr
		}
		defer resp.Body.Close()
		data, dlErr = io.ReadAll(resp.Body)
		return dlErr
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, loc)
		}
		return nil, fmt.Errorf("download %s: %w", loc, err)
	}
	metrics.RecordBytesRead(backendName, len(data))
	return data, nil
}

// Exists reports whether a blob exists at loc.
func (b *Backend) Exists(ctx context.Context, loc storage.Location) bool {
	container, err := b.container(loc.Role)
	if err != nil {
		logger.Debug("existence check failed", "location", loc.String(), "error", err)
		return false
	}

	prefix := loc.Path
	pager := b.api.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			logger.Debug("existence check failed", "location", loc.String(), "error", err)
			return false
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil && *item.Name == loc.Path {
				return true
			}
		}
	}
	return false
}

// List returns blob names (final path elements) directly under dir.
func (b *Backend) List(ctx context.Context, dir storage.Location, pattern string) (names []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "list", time.Since(start), err) }()

	container, err := b.container(dir.Role)
	if err != nil {
		return nil, err
	}

	prefix := dir.Path
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	err = b.retry(ctx, "list", func() error {
		names = names[:0]
		pager := b.api.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
		for pager.More() {
			page, pageErr := pager.NextPage(ctx)
			if pageErr != nil {
				return pageErr
			}
			if page.Segment == nil {
				continue
			}
			for _, item := range page.Segment.BlobItems {
				if item.Name == nil {
					continue
				}
				name := strings.TrimPrefix(*item.Name, prefix)
				if name == "" || strings.Contains(name, "/") {
					continue
				}
				if pattern != "" {
					ok, matchErr := path.Match(pattern, name)
					if matchErr != nil {
						return backoff.Permanent(fmt.Errorf("bad pattern %q: %w", pattern, matchErr))
					}
					if !ok {
						continue
					}
				}
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the blob at loc.
func (b *Backend) Delete(ctx context.Context, loc storage.Location) (err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "delete", time.Since(start), err) }()

	container, err := b.container(loc.Role)
	if err != nil {
		return err
	}
	err = b.retry(ctx, "delete", func() error {
		_, delErr := b.api.DeleteBlob(ctx, container, loc.Path, nil)
		return delErr
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, loc)
		}
		return fmt.Errorf("delete %s: %w", loc, err)
	}
	return nil
}

// container resolves a role through the container mapping.
func (b *Backend) container(role storage.Role) (string, error) {
	name, ok := b.cfg.Containers[role]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: no container mapped for role %q", storage.ErrConfiguration, role)
	}
	return name, nil
}

// retry runs fn with exponential backoff on transient failures.
// Exhausted retries surface as storage.ErrBackendUnavailable.
func (b *Backend) retry(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.policy.BaseDelay
	bo.MaxInterval = b.policy.MaxDelay
	bo.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		attempt++
		metrics.RecordRetry(backendName, op)
		logger.Warn("transient failure, retrying",
			"backend", backendName, "operation", op, "attempt", attempt, "error", err)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(b.policy.MaxRetries)), ctx))

	if err != nil && isTransient(err) {
		return fmt.Errorf("%w: retries exhausted after %d attempts: %v",
			storage.ErrBackendUnavailable, b.policy.MaxRetries+1, err)
	}
	return err
}

// transientStatus lists HTTP status codes worth retrying.
var transientStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

func isTransient(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return transientStatus[respErr.StatusCode]
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func isNotFound(err error) bool {
	return bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound)
}
