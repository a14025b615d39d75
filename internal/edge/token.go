package edge

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"srql-engine/internal/common"
)

const tokenPrefix = "edgepkg-v1:"

// TokenPayload is the decoded form of an onboarding token.
type TokenPayload struct {
	PackageID     string `json:"pkg"`
	DownloadToken string `json:"dl"`
	APIBaseURL    string `json:"api,omitempty"`
}

// EncodeToken renders a payload as edgepkg-v1:<base64url(JSON)>.
func EncodeToken(payload TokenPayload) (string, error) {
	if err := validatePayload(payload); err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", common.NewErrorWithCause(common.ErrInternal, "failed to encode onboarding token", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// ParseToken accepts the structured edgepkg-v1 format plus the legacy forms
// "<package_id>:<download_token>" and "<url>@<package_id>:<download_token>".
// A bare string with no separator is treated as the download token alone,
// which only validates when fallbackPackageID is supplied.
func ParseToken(raw, fallbackPackageID, fallbackAPIBaseURL string) (TokenPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TokenPayload{}, common.NewError(common.ErrDownloadTokenInvalid, "onboarding token is required")
	}

	if strings.HasPrefix(raw, tokenPrefix) {
		return parseStructuredToken(raw, fallbackPackageID, fallbackAPIBaseURL)
	}
	return parseLegacyToken(raw, fallbackPackageID, fallbackAPIBaseURL)
}

func parseStructuredToken(raw, fallbackPackageID, fallbackAPIBaseURL string) (TokenPayload, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(raw, tokenPrefix))
	if err != nil {
		return TokenPayload{}, common.NewErrorWithCause(common.ErrDownloadTokenInvalid, "malformed onboarding token", err)
	}

	var payload TokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return TokenPayload{}, common.NewErrorWithCause(common.ErrDownloadTokenInvalid, "malformed onboarding token", err)
	}

	if payload.PackageID == "" {
		payload.PackageID = fallbackPackageID
	}
	if payload.APIBaseURL == "" {
		payload.APIBaseURL = fallbackAPIBaseURL
	}
	return payload, validatePayload(payload)
}

func parseLegacyToken(raw, fallbackPackageID, fallbackAPIBaseURL string) (TokenPayload, error) {
	payload := TokenPayload{
		PackageID:  fallbackPackageID,
		APIBaseURL: fallbackAPIBaseURL,
	}

	legacy := raw
	if at := strings.Index(legacy, "@"); at >= 0 {
		maybeURL := strings.TrimSpace(legacy[:at])
		remainder := strings.TrimSpace(legacy[at+1:])
		if looksLikeURL(maybeURL) && remainder != "" {
			payload.APIBaseURL = maybeURL
			legacy = remainder
		}
	}

	if idx := strings.IndexAny(legacy, ":/|,"); idx >= 0 {
		payload.PackageID = strings.TrimSpace(legacy[:idx])
		payload.DownloadToken = strings.TrimSpace(legacy[idx+1:])
	} else {
		payload.DownloadToken = strings.TrimSpace(legacy)
	}
	return payload, validatePayload(payload)
}

func validatePayload(payload TokenPayload) error {
	if payload.PackageID == "" {
		return common.NewError(common.ErrDownloadTokenInvalid, "onboarding token is missing the package id")
	}
	if strings.TrimSpace(payload.DownloadToken) == "" {
		return common.NewError(common.ErrDownloadTokenInvalid, "onboarding token is missing the download token")
	}
	return nil
}

func looksLikeURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// NewDownloadToken returns a fresh random token in base64url form.
func NewDownloadToken(numBytes int) (string, error) {
	if numBytes <= 0 {
		numBytes = 32
	}
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", common.NewErrorWithCause(common.ErrInternal, "failed to generate download token", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashDownloadToken returns the hex SHA-256 of a download token. Only hashes
// are persisted.
func HashDownloadToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
