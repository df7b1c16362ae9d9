// Package seed loads an initial product catalogue into an empty store.
package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"product-service/internal/model"
)

// Loader reads product payloads from a seed source.
type Loader interface {
	// Load returns every payload held by source, in file order.
	Load(ctx context.Context, source string) ([]model.Payload, error)
}

// isGzipped reports whether source is compressed, judged by its suffix.
func isGzipped(source string) bool {
	return strings.HasSuffix(strings.ToLower(source), ".gz")
}

// decodePayloads streams a JSON array of product objects from r.
func decodePayloads(ctx context.Context, r io.Reader, gzipped bool) ([]model.Payload, error) {
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	dec := json.NewDecoder(bufio.NewReader(r))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read seed data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("seed data must be a JSON array")
	}

	var payloads []model.Payload
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var p model.Payload
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode seed entry %d: %w", len(payloads), err)
		}
		payloads = append(payloads, p)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of seed data: %w", err)
	}

	return payloads, nil
}
