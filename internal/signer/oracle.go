// Package signer models the threshold-ECDSA oracle that holds the relayer's
// signing key. No private key material ever lives in this process; every
// signature is requested from the oracle over HTTP, mirroring the teacher
// codebase's facilitator HTTP client (context-aware requests, JSON bodies,
// typed error wrapping) rather than a raw crypto/ecdsa key.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Oracle is the threshold-signing collaborator the relay depends on.
// Implementations never expose a private key; they accept a derivation
// path and a 32-byte digest and return a low-level (r, s) pair.
type Oracle interface {
	PublicKey(ctx context.Context, derivationPath string) ([]byte, error)
	SignDigest(ctx context.Context, derivationPath string, digest [32]byte) (r, s [32]byte, err error)
}

// HTTPOracle is an Oracle backed by a remote signing service reachable over
// plain JSON/HTTP, grounded on http/facilitator_client.go's request idiom.
type HTTPOracle struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPOracle returns an HTTPOracle targeting baseURL, defaulting to a
// 15-second per-call timeout if client is nil.
func NewHTTPOracle(baseURL string, client *http.Client) *HTTPOracle {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPOracle{baseURL: baseURL, httpClient: client}
}

type publicKeyResponse struct {
	PublicKey string `json:"public_key"`
}

// PublicKey fetches the uncompressed public key for derivationPath.
func (o *HTTPOracle) PublicKey(ctx context.Context, derivationPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/public-key?path="+derivationPath, nil)
	if err != nil {
		return nil, fmt.Errorf("signer: build public key request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signer: public key request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("signer: read public key response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signer: oracle public-key failed (%d): %s", resp.StatusCode, string(body))
	}
	var parsed publicKeyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("signer: decode public key response: %w", err)
	}
	return hexutil.Decode(parsed.PublicKey)
}

type signRequest struct {
	DerivationPath string `json:"derivation_path"`
	Digest         string `json:"digest"`
}

type signResponse struct {
	R string `json:"r"`
	S string `json:"s"`
}

// SignDigest requests a signature over digest from the oracle.
func (o *HTTPOracle) SignDigest(ctx context.Context, derivationPath string, digest [32]byte) (r, s [32]byte, err error) {
	body, err := json.Marshal(signRequest{DerivationPath: derivationPath, Digest: hexutil.Encode(digest[:])})
	if err != nil {
		return r, s, fmt.Errorf("signer: marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return r, s, fmt.Errorf("signer: build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return r, s, fmt.Errorf("signer: sign request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return r, s, fmt.Errorf("signer: read sign response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return r, s, fmt.Errorf("signer: oracle sign failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed signResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return r, s, fmt.Errorf("signer: decode sign response: %w", err)
	}
	rBytes, err := hexutil.Decode(parsed.R)
	if err != nil {
		return r, s, fmt.Errorf("signer: decode r: %w", err)
	}
	sBytes, err := hexutil.Decode(parsed.S)
	if err != nil {
		return r, s, fmt.Errorf("signer: decode s: %w", err)
	}
	copy(r[32-len(rBytes):], rBytes)
	copy(s[32-len(sBytes):], sBytes)
	return r, s, nil
}
