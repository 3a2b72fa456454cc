// Package azure presigns abfss:// object URIs with Azure Blob Storage SAS
// tokens. No repo in the example pack imports an Azure SDK; this package
// is out-of-pack (see DESIGN.md), added because abfss is one of the three
// object-store schemes Delta Sharing tables are commonly backed by and no
// in-pack dependency covers it.
package azure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
)

// Signer presigns abfss:// paths against one storage account with a shared
// key credential.
type Signer struct {
	accountName string
	credential  *azblob.SharedKeyCredential
}

// New builds a Signer from an Azure storage account name and key.
func New(accountName, accountKey string) (*Signer, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure signer: shared key credential: %w", err)
	}
	return &Signer{accountName: accountName, credential: cred}, nil
}

// SignURL presigns a GET request for an abfss://container@account.dfs.core.windows.net/blob URI.
func (s *Signer) SignURL(_ context.Context, path string, ttl time.Duration) (signer.SignedURL, error) {
	container, blobPath, err := parseABFSSURI(path)
	if err != nil {
		return signer.SignedURL{}, err
	}

	now := time.Now().UTC()
	expires := now.Add(ttl)
	sasQuery, err := azblob.BlobSASSignatureValues{
		Protocol:      azblob.SASProtocolHTTPS,
		StartTime:     now,
		ExpiryTime:    expires,
		Permissions:   azblob.BlobSASPermissions{Read: true}.String(),
		ContainerName: container,
		BlobName:      blobPath,
	}.NewSASQueryParameters(s.credential)
	if err != nil {
		return signer.SignedURL{}, fmt.Errorf("azure signer: sign %s: %w", path, err)
	}

	blobURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s?%s",
		s.accountName, container, blobPath, sasQuery.Encode())

	return signer.SignedURL{URL: blobURL, ExpiresAt: expires}, nil
}

func parseABFSSURI(path string) (container, blobPath string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("azure signer: parse uri %s: %w", path, err)
	}
	if u.Scheme != "abfss" {
		return "", "", fmt.Errorf("azure signer: not an abfss:// uri: %s", path)
	}
	// u.User holds the container (abfss://container@account.dfs.core.windows.net/path)
	container = u.User.Username()
	return container, strings.TrimPrefix(u.Path, "/"), nil
}

var _ signer.Signer = (*Signer)(nil)
