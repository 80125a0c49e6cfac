package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"chatbot_server/core/domain"
)

// Row is one CSV record keyed by header name.
type Row map[string]string

// Get returns the first non-empty value among keys.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// RowMapper turns one source row into candidates, returning how many the
// aggregator accepted.
type RowMapper func(row Row, emit func(Candidate) bool) int

// TableSource reads a CSV file and maps each row through Map.
type TableSource struct {
	SourceName string
	Path       string
	// Limit stops reading once this many candidates were accepted (0 = all).
	Limit int
	// Shuffle randomizes row order with Seed before mapping.
	Shuffle bool
	Seed    int64
	Map     RowMapper
}

// Name implements SourceReader.
func (s *TableSource) Name() string { return s.SourceName }

// Read implements SourceReader.
func (s *TableSource) Read(ctx context.Context, emit func(Candidate) bool) error {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, s.Path)
		}
		return err
	}
	defer f.Close()

	rows, err := readTable(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.Path, err)
	}
	if s.Shuffle {
		rng := rand.New(rand.NewSource(s.Seed))
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	}

	accepted := 0
	for i, row := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		accepted += s.Map(row, emit)
		if s.Limit > 0 && accepted >= s.Limit {
			break
		}
	}
	return nil
}

// readTable parses a headed CSV. Malformed records are skipped.
func readTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
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
		row := make(Row, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = strings.ToValidUTF8(v, "")
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// =============================================================================
// Built-in sources
// =============================================================================

// Source file names inside the data directory.
const (
	SyntheticFile        = "chatbot_intents.csv"
	BooksFile            = "Best Selling Books- Buy Products Online at Best Price in India - All Categories _ Flipkart.com.csv"
	CosmeticsFile        = "E-commerce  cosmetic dataset.csv"
	FashionFile          = "FashionDataset.csv"
	SalesFile            = "Ecommerce_Sales_Data_2024_2025.csv"
	ReviewsFile          = "Fast Delivery Agent Reviews.csv"
	UserContributionFile = "user_contributions.csv"
)

var delayKeywords = []string{"late", "delay", "time", "slow", "arrive"}

// SourceOptions configures BuiltinSources.
type SourceOptions struct {
	Dir string
	// Limit is the per-source accepted-row limit for external datasets.
	Limit int
	Seed  int64
}

// BuiltinSources returns every known source in priority order: synthetic
// templates, catalogs, orders, reviews, then user contributions.
func BuiltinSources(opts SourceOptions) []SourceReader {
	path := func(name string) string { return filepath.Join(opts.Dir, name) }
	sources := []*TableSource{
		NewSyntheticSource(path(SyntheticFile)),
		NewBooksSource(path(BooksFile), opts.Limit),
		NewCosmeticsSource(path(CosmeticsFile), opts.Limit),
		NewFashionSource(path(FashionFile), opts.Limit),
		NewSalesSource(path(SalesFile), opts.Limit),
		NewReviewsSource(path(ReviewsFile), opts.Limit),
		NewUserContributionSource(path(UserContributionFile)),
	}
	out := make([]SourceReader, len(sources))
	for i, s := range sources {
		s.Seed = opts.Seed + int64(i)
		out[i] = s
	}
	return out
}

func emitIf(emit func(Candidate) bool, c Candidate) int {
	if emit(c) {
		return 1
	}
	return 0
}

// NewSyntheticSource reads the generator output; sentiment follows intent.
func NewSyntheticSource(path string) *TableSource {
	return &TableSource{
		SourceName: "synthetic",
		Path:       path,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			intent := domain.NormalizeIntent(row.Get("intent"))
			return emitIf(emit, Candidate{
				Text:      row.Get("text"),
				Label:     intent.String(),
				Sentiment: domain.SentimentFromIntent(intent).String(),
			})
		},
	}
}

// NewBooksSource turns a book catalog into stock and price questions.
func NewBooksSource(path string, limit int) *TableSource {
	return &TableSource{
		SourceName: "books",
		Path:       path,
		Limit:      limit,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			item := CleanText(row.Get("Item"))
			if item == "" {
				return 0
			}
			n := emitIf(emit, Candidate{Text: "is " + item + " book in stock?", Label: string(domain.IntentStockInfo), Sentiment: "neutral"})
			n += emitIf(emit, Candidate{Text: "price of book " + item, Label: string(domain.IntentPriceQuery), Sentiment: "neutral"})
			return n
		},
	}
}

// NewCosmeticsSource turns a cosmetics catalog into availability questions.
func NewCosmeticsSource(path string, limit int) *TableSource {
	return &TableSource{
		SourceName: "cosmetics",
		Path:       path,
		Limit:      limit,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			prod := CleanText(row.Get("product_name"))
			if prod == "" {
				return 0
			}
			n := emitIf(emit, Candidate{Text: "is " + prod + " available?", Label: string(domain.IntentStockInfo), Sentiment: "neutral"})
			n += emitIf(emit, Candidate{Text: "restock " + prod + "?", Label: string(domain.IntentRestockAlert), Sentiment: "neutral"})
			return n
		},
	}
}

// NewFashionSource turns a fashion catalog into sizing and care questions.
// The dataset spells its details column "Deatils".
func NewFashionSource(path string, limit int) *TableSource {
	return &TableSource{
		SourceName: "fashion",
		Path:       path,
		Limit:      limit,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			n := 0
			if brand := CleanText(row.Get("BrandName")); brand != "" {
				n += emitIf(emit, Candidate{Text: "sizing for " + brand, Label: string(domain.IntentSizingHelp), Sentiment: "neutral"})
			}
			if details := CleanText(row.Get("Deatils")); details != "" {
				n += emitIf(emit, Candidate{Text: "how to wash " + details, Label: string(domain.IntentProductCare), Sentiment: "neutral"})
			}
			return n
		},
	}
}

// NewSalesSource turns historical orders into order status questions.
func NewSalesSource(path string, limit int) *TableSource {
	return &TableSource{
		SourceName: "sales",
		Path:       path,
		Limit:      limit,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			oid := CleanText(row.Get("Order ID"))
			if oid == "" {
				return 0
			}
			return emitIf(emit, Candidate{Text: "order status " + oid, Label: string(domain.IntentGetOrder), Sentiment: "neutral"})
		},
	}
}

// NewReviewsSource labels rated reviews: positive reviews become feedback,
// negative ones shipping or product complaints. Neutral reviews are skipped.
func NewReviewsSource(path string, limit int) *TableSource {
	return &TableSource{
		SourceName: "reviews",
		Path:       path,
		Limit:      limit,
		Shuffle:    true,
		Map: func(row Row, emit func(Candidate) bool) int {
			rating := row.Get("Rating")
			raw := row.Get("Reviews", "Review", "reviews")
			if rating == "" || raw == "" {
				return 0
			}
			text := CleanText(raw)
			switch domain.ParseRatingSentiment(rating) {
			case domain.SentimentPositive:
				return emitIf(emit, Candidate{Text: text, Label: string(domain.IntentPositiveFeedback), Sentiment: "positive"})
			case domain.SentimentNegative:
				label := domain.IntentProductIssue
				if containsAny(strings.ToLower(text), delayKeywords) {
					label = domain.IntentShippingInfo
				}
				return emitIf(emit, Candidate{Text: text, Label: string(label), Sentiment: "negative"})
			}
			return 0
		},
	}
}

// NewUserContributionSource reads exported chat interactions as-is.
func NewUserContributionSource(path string) *TableSource {
	return &TableSource{
		SourceName: "user_contributions",
		Path:       path,
		Map: func(row Row, emit func(Candidate) bool) int {
			return emitIf(emit, Candidate{
				Text:      row.Get("text"),
				Label:     row.Get("intent"),
				Sentiment: row.Get("sentiment"),
			})
		},
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// =============================================================================
// fastText export
// =============================================================================

// WriteFastText writes one `__label__<intent> <text>` line per example.
func WriteFastText(w io.Writer, examples []domain.TrainingExample) error {
	for _, ex := range examples {
		text := strings.ReplaceAll(ex.Text, "\n", " ")
		if _, err := fmt.Fprintf(w, "__label__%s %s\n", ex.Intent, text); err != nil {
			return err
		}
	}
	return nil
}
