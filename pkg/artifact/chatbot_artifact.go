// Package artifact persists trained model state as gzip-compressed JSON blobs.
package artifact

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// formatVersion is bumped whenever an envelope change breaks old readers.
const formatVersion = 1

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrKindMismatch = errors.New("artifact kind mismatch")
)

// Kinds of blobs written by the trainers.
const (
	KindVectorizer   = "tfidf-vectorizer"
	KindIntentModel  = "logreg-intent"
	KindNetwork      = "bilstm-sentiment"
	KindTokenizer    = "tokenizer"
	KindLabelEncoder = "label-encoder"
)

type envelope struct {
	Kind      string          `json:"kind"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Save marshals v into an envelope of the given kind and writes it to path.
// The file is written to a temp sibling and renamed so readers never see a
// partially written blob.
func Save(path, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	data, err := json.Marshal(envelope{
		Kind:      kind,
		Version:   formatVersion,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", kind, err)
	}

	compressed, err := compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", kind, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads the blob at path into v. A missing file yields ErrNotFound.
func Load(path, kind string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	data, err := decompress(raw)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if env.Kind != kind {
		return fmt.Errorf("%w: %s holds %q, want %q", ErrKindMismatch, path, env.Kind, kind)
	}
	if env.Version > formatVersion {
		return fmt.Errorf("artifact %s has unsupported version %d", path, env.Version)
	}
	return json.Unmarshal(env.Payload, v)
}

// Exists reports whether a blob file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
