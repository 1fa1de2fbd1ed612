// Package nix materializes environments with the Nix CLI and looks packages up in NixHub.
package nix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	httpClientTimeout = 30 * time.Second
	// cacheTTL bounds how long a "latest" lookup is trusted.
	cacheTTL = 24 * time.Hour
	// lookupVersion is the only version the index is asked for.
	lookupVersion = "latest"
)

// Index implements ports.PackageIndex using the NixHub API with a local file cache.
type Index struct {
	httpClient *http.Client
	system     string
	now        func() time.Time
}

var _ ports.PackageIndex = (*Index)(nil)

// NewIndex creates a PackageIndex backed by NixHub for the current system.
func NewIndex() *Index {
	return NewIndexWithClient(&http.Client{Timeout: httpClientTimeout}, currentSystem())
}

// NewIndexWithClient creates an Index with a custom http client and target system.
func NewIndexWithClient(client *http.Client, system string) *Index {
	return &Index{
		httpClient: client,
		system:     system,
		now:        time.Now,
	}
}

// Lookup resolves req.AttrPath to the latest version available for the index system.
// Results are cached in req.CacheDir when it is set.
func (i *Index) Lookup(ctx context.Context, req domain.LookupRequest) (*domain.PackageInfo, error) {
	var cachePath string
	if req.CacheDir != "" {
		cachePath = cacheFilePath(req.CacheDir, req.AttrPath)
		if info, err := i.loadFromCache(cachePath, req.AttrPath); err == nil {
			return info, nil
		}
	}

	apiResponse, err := i.queryNixHub(ctx, req)
	if err != nil {
		return nil, err
	}

	systemData, ok := apiResponse.Systems[i.system]
	if !ok {
		return nil, domain.Tagged(domain.ErrUnsupportedArchitecture,
			"attr_path", req.AttrPath,
			"system", i.system,
		)
	}

	if cachePath != "" {
		// Cache write failures do not fail the lookup.
		_ = i.saveToCache(cachePath, req.AttrPath, apiResponse)
	}

	return &domain.PackageInfo{
		AttrPath: req.AttrPath,
		Version:  apiResponse.Version,
		Rev:      systemData.FlakeInstallable.Ref.Rev,
		Summary:  apiResponse.Summary,
	}, nil
}

// Clear removes every cached lookup in cacheDir.
func (i *Index) Clear(cacheDir string) error {
	if cacheDir == "" {
		return nil
	}
	if err := os.RemoveAll(cacheDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error()), "path", cacheDir)
	}
	return nil
}

// getHash generates a SHA-256 hash of an attribute path and version.
func getHash(attrPath, version string) string {
	hash := sha256.Sum256([]byte(attrPath + "@" + version))
	return hex.EncodeToString(hash[:])
}

func cacheFilePath(cacheDir, attrPath string) string {
	return filepath.Join(cacheDir, getHash(attrPath, lookupVersion)+".json")
}

// loadFromCache loads a fresh cached lookup for the index system.
func (i *Index) loadFromCache(path, attrPath string) (*domain.PackageInfo, error) {
	//nolint:gosec // Path is constructed from the cache directory and a hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	if entry.AttrPath != attrPath || i.now().Sub(entry.Timestamp) > cacheTTL {
		return nil, domain.ErrCacheMiss
	}

	systemCache, ok := entry.Systems[i.system]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	return &domain.PackageInfo{
		AttrPath: attrPath,
		Version:  entry.Version,
		Rev:      systemCache.FlakeInstallable.Ref.Rev,
		Summary:  entry.Summary,
	}, nil
}

// saveToCache stores the supported systems of an API response.
func (i *Index) saveToCache(path, attrPath string, apiResponse *nixHubResponse) error {
	systems := make(map[string]SystemCache)
	for sysName, sysData := range apiResponse.Systems {
		if _, supported := supportedSystems[sysName]; !supported {
			continue
		}
		systems[sysName] = SystemCache{
			FlakeInstallable: sysData.FlakeInstallable,
			Outputs:          sysData.Outputs,
		}
	}

	entry := cacheEntry{
		AttrPath:  attrPath,
		Version:   apiResponse.Version,
		Summary:   apiResponse.Summary,
		Systems:   systems,
		Timestamp: i.now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	if err := atomicWriteFile(path, data); err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	return nil
}

// atomicWriteFile writes data to a temp file next to path and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheCreateFailed.Error())
	}

	tmpFile, err := os.CreateTemp(dir, "nixhub-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// queryNixHub asks NixHub for the latest version of an attribute path.
func (i *Index) queryNixHub(ctx context.Context, lookup domain.LookupRequest) (*nixHubResponse, error) {
	endpoint := lookup.Endpoint
	if endpoint == "" {
		endpoint = domain.DefaultNixHubURL
	}
	query := url.Values{}
	query.Set("name", lookup.AttrPath)
	query.Set("version", lookupVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error())
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error()), "attr_path", lookup.AttrPath)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.Tagged(domain.ErrNixPackageNotFound, "attr_path", lookup.AttrPath)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Tagged(domain.ErrNixAPIRequestFailed,
			"status_code", resp.StatusCode,
			"attr_path", lookup.AttrPath,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error())
	}

	var apiResp nixHubResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrNixAPIParseFailed.Error()), "attr_path", lookup.AttrPath)
	}

	if len(apiResp.Systems) == 0 {
		return nil, domain.Tagged(domain.ErrNixPackageNotFound, "attr_path", lookup.AttrPath)
	}

	return &apiResp, nil
}
