package training

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chatbot_server/core/domain"
	"chatbot_server/core/ml/rnn"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const labelPrefix = "__label__"

// ReadRatedLines parses `__label__N text` lines from r, decoding UTF-16 when
// a byte order mark is present and UTF-8 otherwise. Only the first limit
// lines are inspected (0 = all); lines without a numeric label are skipped.
func ReadRatedLines(r io.Reader, limit int) ([]domain.RatedText, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var out []domain.RatedText
	for line := 0; sc.Scan(); line++ {
		if limit > 0 && line >= limit {
			break
		}
		text := strings.TrimSpace(strings.ToValidUTF8(sc.Text(), ""))
		if !strings.Contains(text, labelPrefix) {
			continue
		}
		head, body, _ := strings.Cut(text, " ")
		rating, err := strconv.ParseFloat(strings.TrimPrefix(head, labelPrefix), 64)
		if err != nil {
			continue
		}
		out = append(out, domain.RatedText{Text: body, Rating: rating})
	}
	return out, sc.Err()
}

// ReadRatedCSV parses a `text,rating` CSV.
func ReadRatedCSV(r io.Reader, limit int) ([]domain.RatedText, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	textCol, ratingCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "text", "review", "reviews":
			textCol = i
		case "rating":
			ratingCol = i
		}
	}
	if textCol < 0 || ratingCol < 0 {
		return nil, fmt.Errorf("rated csv needs text and rating columns, got %v", header)
	}

	var out []domain.RatedText
	for {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if textCol >= len(rec) || ratingCol >= len(rec) {
			continue
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(rec[ratingCol]), 64)
		if err != nil {
			continue
		}
		out = append(out, domain.RatedText{Text: rec[textCol], Rating: rating})
	}
	return out, nil
}

// LoadSentimentCorpus reads the rated corpus at path (CSV by extension,
// fastText lines otherwise) and applies the rating rule.
func LoadSentimentCorpus(path string, limit int) ([]domain.SentimentExample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusMissing, path)
		}
		return nil, err
	}
	defer f.Close()

	var rated []domain.RatedText
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rated, err = ReadRatedCSV(f, limit)
	} else {
		rated, err = ReadRatedLines(f, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("read sentiment corpus %s: %w", path, err)
	}

	out := make([]domain.SentimentExample, len(rated))
	for i, rt := range rated {
		out[i] = domain.SentimentExample{
			Text:      rnn.CleanText(rt.Text),
			Sentiment: domain.SentimentFromRating(rt.Rating),
		}
	}
	return out, nil
}
