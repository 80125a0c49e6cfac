// Package lexicon scores sentiment from a word valence table with
// negation and intensity rules. It needs no trained artifact.
package lexicon

import (
	"bufio"
	_ "embed"
	"math"
	"strconv"
	"strings"
	"unicode"
)

//go:embed valence.txt
var valenceData string

const (
	boostIncrement = 0.293
	negationScalar = -0.74
	capsIncrement  = 0.733
	normAlpha      = 15.0
)

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {}, "nothing": {},
	"neither": {}, "nor": {}, "cannot": {}, "cant": {}, "dont": {}, "doesnt": {},
	"didnt": {}, "isnt": {}, "wasnt": {}, "werent": {}, "arent": {}, "wont": {},
	"wouldnt": {}, "shouldnt": {}, "couldnt": {}, "havent": {}, "hasnt": {}, "without": {},
}

var boosters = map[string]float64{
	"absolutely": boostIncrement, "extremely": boostIncrement, "very": boostIncrement,
	"really": boostIncrement, "so": boostIncrement, "totally": boostIncrement,
	"incredibly": boostIncrement, "super": boostIncrement, "completely": boostIncrement,
	"highly": boostIncrement, "most": boostIncrement, "too": boostIncrement,
	"barely": -boostIncrement, "hardly": -boostIncrement, "slightly": -boostIncrement,
	"somewhat": -boostIncrement, "kinda": -boostIncrement, "little": -boostIncrement,
}

// Scores is the polarity breakdown of a text.
type Scores struct {
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Compound float64 `json:"compound"`
}

// Analyzer computes polarity scores.
type Analyzer struct {
	valence map[string]float64
}

// NewAnalyzer loads the built-in valence table.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{valence: make(map[string]float64)}
	sc := bufio.NewScanner(strings.NewReader(valenceData))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, raw, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			a.valence[word] = v
		}
	}
	return a
}

// Valence returns the table value for a lowercase word.
func (a *Analyzer) Valence(word string) (float64, bool) {
	v, ok := a.valence[word]
	return v, ok
}

type token struct {
	word  string
	shout bool
}

// PolarityScores scores text. Compound lies in [-1, 1].
func (a *Analyzer) PolarityScores(text string) Scores {
	toks := tokenize(text)
	if len(toks) == 0 {
		return Scores{Neutral: 1}
	}
	mixedCase := hasMixedCase(toks)

	sentiments := make([]float64, len(toks))
	for i, tk := range toks {
		v, ok := a.valence[tk.word]
		if !ok {
			continue
		}
		if tk.shout && mixedCase {
			v += math.Copysign(capsIncrement, v)
		}
		for back := 1; back <= 3 && i-back >= 0; back++ {
			prev := toks[i-back].word
			if b, ok := boosters[prev]; ok {
				damp := 1.0 - 0.05*float64(back-1)
				if back == 3 {
					damp = 0.9
				}
				v += math.Copysign(b*damp, v)
			}
			if _, ok := negations[prev]; ok {
				v *= negationScalar
			}
		}
		sentiments[i] = v
	}
	applyButRule(toks, sentiments)

	sum := 0.0
	for _, s := range sentiments {
		sum += s
	}
	sum += math.Copysign(emphasis(text), sum)

	var pos, neg float64
	var neutral int
	for _, s := range sentiments {
		switch {
		case s > 0:
			pos += s + 1
		case s < 0:
			neg += s - 1
		default:
			neutral++
		}
	}
	total := pos + math.Abs(neg) + float64(neutral)
	return Scores{
		Positive: round3(pos / total),
		Negative: round3(math.Abs(neg) / total),
		Neutral:  round3(float64(neutral) / total),
		Compound: round4(normalize(sum)),
	}
}

// Compound is a shortcut for PolarityScores(text).Compound.
func (a *Analyzer) Compound(text string) float64 {
	return a.PolarityScores(text).Compound
}

func normalize(score float64) float64 {
	n := score / math.Sqrt(score*score+normAlpha)
	return math.Max(-1, math.Min(1, n))
}

// applyButRule weights clauses around "but": before by half, after by 1.5.
func applyButRule(toks []token, sentiments []float64) {
	for i, tk := range toks {
		if tk.word != "but" {
			continue
		}
		for j := range sentiments {
			switch {
			case j < i:
				sentiments[j] *= 0.5
			case j > i:
				sentiments[j] *= 1.5
			}
		}
		return
	}
}

func emphasis(text string) float64 {
	bangs := math.Min(float64(strings.Count(text, "!")), 4) * 0.292
	q := float64(strings.Count(text, "?"))
	if q > 1 {
		bangs += math.Min(q*0.18, 0.96)
	}
	return bangs
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	out := make([]token, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, f)
		if cleaned == "" {
			continue
		}
		out = append(out, token{
			word:  strings.ToLower(cleaned),
			shout: len(cleaned) > 1 && strings.ToUpper(cleaned) == cleaned && strings.ToLower(cleaned) != cleaned,
		})
	}
	return out
}

func hasMixedCase(toks []token) bool {
	shouts := 0
	for _, tk := range toks {
		if tk.shout {
			shouts++
		}
	}
	return shouts > 0 && shouts < len(toks)
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
