package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"product-service/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for seed files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "seed-loader").Logger(),
	}
}

// Load reads a JSON seed file, gunzipping it when the name ends in .gz.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Payload, error) {
	l.logger.Info().Str("file", filePath).Msg("loading seed file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", filePath, err)
	}
	defer file.Close()

	payloads, err := decodePayloads(ctx, file, isGzipped(filePath))
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read seed file")
		return nil, fmt.Errorf("seed file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("products", len(payloads)).
		Msg("seed file loaded successfully")

	return payloads, nil
}

// sourceLoader dispatches s3:// sources to the S3 loader and everything
// else to the local file system.
type sourceLoader struct {
	s3Loader   Loader
	fileLoader Loader
	logger     zerolog.Logger
}

// NewSourceLoader creates a loader that picks a backend per source. s3Loader
// may be nil when no S3 source is configured.
func NewSourceLoader(s3Loader, fileLoader Loader, logger zerolog.Logger) Loader {
	return &sourceLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		logger:     logger.With().Str("component", "source-loader").Logger(),
	}
}

// Load reads source through the matching backend.
func (l *sourceLoader) Load(ctx context.Context, source string) ([]model.Payload, error) {
	if !IsS3Source(source) {
		return l.fileLoader.Load(ctx, source)
	}

	if l.s3Loader == nil {
		l.logger.Warn().Str("source", source).Msg("S3 loader not configured")
		return nil, fmt.Errorf("no S3 loader configured for %s", source)
	}
	return l.s3Loader.Load(ctx, source)
}

// IsS3Source reports whether source is an s3://bucket/key URI.
func IsS3Source(source string) bool {
	return strings.HasPrefix(source, s3Scheme)
}
