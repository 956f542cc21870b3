// Package knowledge loads the dashboard's knowledge base, preferring a remote
// copy and falling back to the local file shipped with the repo.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// Source identifies where a Document was loaded from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Document is a loaded knowledge base. Value holds whatever JSON value the
// source contained; callers must not mutate it since it is shared through
// the loader's cache.
type Document struct {
	Value  any    `json:"data"`
	Source Source `json:"source"`
	URL    string `json:"url,omitempty"`
}

// Fetcher retrieves and decodes a remote JSON document.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (any, error)
}

// Loader resolves the knowledge base and memoizes the outcome per source URL.
type Loader struct {
	fetcher   Fetcher
	localPath string
	logger    *slog.Logger
	cache     *memo
}

// NewLoader creates a Loader that falls back to localPath.
// A nil logger discards warnings.
func NewLoader(fetcher Fetcher, localPath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		fetcher:   fetcher,
		localPath: localPath,
		logger:    logger,
		cache:     newMemo(),
	}
}

// Load returns the knowledge base. When sourceURL is non-empty the remote
// copy is tried first and any failure there is logged and swallowed. The
// local file is read next. A nil Document with a nil error means neither
// source had data.
//
// A local file that exists but cannot be read or parsed is returned as a
// *LoadError. Only successful outcomes, including the nil Document, are
// cached.
//
// The shared load does not observe cancellation of ctx; the fetcher's
// timeout bounds it.
func (l *Loader) Load(ctx context.Context, sourceURL string) (*Document, error) {
	shared := context.WithoutCancel(ctx)
	return l.cache.do(sourceURL, func() (*Document, error) {
		return l.load(shared, sourceURL)
	})
}

func (l *Loader) load(ctx context.Context, sourceURL string) (*Document, error) {
	if sourceURL != "" && l.fetcher != nil {
		value, err := l.fetcher.FetchJSON(ctx, sourceURL)
		if err == nil {
			return &Document{Value: value, Source: SourceRemote, URL: sourceURL}, nil
		}
		l.logger.Warn("knowledge: remote load failed, falling back to local copy",
			slog.String("url", sourceURL),
			slog.String("path", l.localPath),
			slog.String("error", err.Error()))
	}

	return LoadLocal(l.localPath)
}

// LoadLocal reads the knowledge base file at path. A missing file yields
// (nil, nil).
func LoadLocal(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &LoadError{Path: path, Message: "failed to stat", Cause: err}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read", Cause: err}
	}

	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse JSON in", Cause: err}
	}

	return &Document{Value: value, Source: SourceLocal}, nil
}
