// Package migratelog exports the log ring of a running relayd instance as
// newline-delimited JSON, for archiving into durable storage before the
// in-memory ring evicts old entries. Grounded on internal/signer's HTTP
// oracle client idiom (context-aware requests, typed error wrapping)
// applied to the relay's own /v1/logs endpoint instead of a signer service.
package migratelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type logEntry struct {
	ID          uint64 `json:"id"`
	TimestampMS int64  `json:"timestamp_ms"`
	ChainID     uint64 `json:"chain_id"`
	AssetID     string `json:"asset_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidBefore uint64 `json:"valid_before"`
	TxHash      string `json:"tx_hash"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason"`
}

// The underlying GET /v1/logs endpoint only supports "entries newer than
// after_id", newest-first, capped at 100 per call — there is no cursor to
// walk further back than the newest entries. So this command takes a single
// snapshot of the newest retained entries: at most --page-size, and never
// more than the endpoint's cap of 100, even when the ring holds more.

// New returns the "migrate-log" subcommand.
func New() *cobra.Command {
	var baseURL string
	var pageSize int

	cmd := &cobra.Command{
		Use:   "migrate-log",
		Short: "Snapshot a running relay's in-memory submission log as newline-delimited JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), baseURL, pageSize)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the running relayd instance")
	cmd.Flags().IntVar(&pageSize, "page-size", 1024, "maximum entries to snapshot, newest-first (the server returns at most 100)")

	return cmd
}

func run(ctx context.Context, baseURL string, pageSize int) error {
	client := &http.Client{Timeout: 15 * time.Second}
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	entries, err := fetchPage(ctx, client, baseURL, 0, pageSize)
	if err != nil {
		return errors.Wrap(err, "migrate-log: fetch snapshot")
	}
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return errors.Wrap(err, "migrate-log: marshal entry")
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return errors.Wrap(err, "migrate-log: write entry")
		}
	}
	return nil
}

func fetchPage(ctx context.Context, client *http.Client, baseURL string, afterID uint64, limit int) ([]logEntry, error) {
	url := fmt.Sprintf("%s/v1/logs?after_id=%s&limit=%d", baseURL, strconv.FormatUint(afterID, 10), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("migrate-log: unexpected status %d", resp.StatusCode)
	}
	var entries []logEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}
