package edge

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"time"

	"srql-engine/internal/common"
)

// archiveManifest is the machine-readable part of an onboarding archive.
type archiveManifest struct {
	PackageID     string        `json:"package_id"`
	Name          string        `json:"name"`
	ComponentType ComponentType `json:"component_type,omitempty"`
	PollerID      string        `json:"poller_id,omitempty"`
	Site          string        `json:"site,omitempty"`
	Selectors     []string      `json:"selectors"`
	APIBaseURL    string        `json:"api_base_url,omitempty"`
	IssuedAt      time.Time     `json:"issued_at"`
}

// ManifestJSON renders the archive manifest for a package, used both inside
// the archive and for JSON-format downloads.
func ManifestJSON(pkg *Package) ([]byte, error) {
	manifest, err := json.MarshalIndent(archiveManifest{
		PackageID:     pkg.ID.String(),
		Name:          pkg.Name,
		ComponentType: pkg.ComponentType,
		PollerID:      pkg.PollerID,
		Site:          pkg.Site,
		Selectors:     pkg.Selectors,
		APIBaseURL:    pkg.APIBaseURL,
		IssuedAt:      pkg.CreatedAt,
	}, "", "  ")
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "failed to render manifest", err)
	}
	return manifest, nil
}

const installScript = `#!/bin/sh
set -eu

CONF_DIR="${CONF_DIR:-/etc/edge-agent}"

mkdir -p "$CONF_DIR"
cp manifest.json "$CONF_DIR/manifest.json"
cp onboarding.token "$CONF_DIR/onboarding.token"
chmod 600 "$CONF_DIR/onboarding.token"

echo "edge package installed to $CONF_DIR"
`

// BuildArchive renders the tar.gz an edge host downloads: the package
// manifest, the onboarding token, and a minimal install script.
func BuildArchive(pkg *Package, onboardingToken string) ([]byte, error) {
	manifest, err := ManifestJSON(pkg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	files := []struct {
		name string
		mode int64
		body []byte
	}{
		{"manifest.json", 0o644, manifest},
		{"onboarding.token", 0o600, []byte(onboardingToken + "\n")},
		{"install.sh", 0o755, []byte(installScript)},
	}

	for _, file := range files {
		header := &tar.Header{
			Name:    file.name,
			Mode:    file.mode,
			Size:    int64(len(file.body)),
			ModTime: pkg.CreatedAt,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, common.NewErrorWithCause(common.ErrInternal,
				fmt.Sprintf("failed to write archive entry %s", file.name), err)
		}
		if _, err := tw.Write(file.body); err != nil {
			return nil, common.NewErrorWithCause(common.ErrInternal,
				fmt.Sprintf("failed to write archive entry %s", file.name), err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "failed to finalize archive", err)
	}
	if err := gz.Close(); err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "failed to finalize archive", err)
	}
	return buf.Bytes(), nil
}
