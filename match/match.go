// Package match scores textual closeness between a search term and a video
// title on a 0..100 scale.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	apostropheRe = regexp.MustCompile("[''`‘’ʼ]")
	specialsRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases the string, strips in-word apostrophes, replaces the
// remaining non-alphanumerics with spaces and collapses runs of whitespace.
// "Schitt's Creek!" and "schitts creek" normalize to the same form.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = apostropheRe.ReplaceAllString(s, "")
	s = specialsRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Ratio is the plain edit-distance similarity of the normalized inputs.
// Identical normalized strings score 100; completely different strings 0.
func Ratio(a, b string) int {
	return ratio(Normalize(a), Normalize(b))
}

// PartialRatio slides the shorter normalized input over the longer one and
// returns the best window score, so a title containing the whole term scores
// near 100 regardless of surrounding words.
func PartialRatio(a, b string) int {
	return partialRatio(Normalize(a), Normalize(b))
}

// TokenSetRatio compares sorted unique token sets, which makes the score
// robust to word reordering and to extra words on one side.
func TokenSetRatio(a, b string) int {
	return tokenSetRatio(Normalize(a), Normalize(b))
}

// Score is the similarity used by the scanner: the best of the token-set and
// partial ratios over normalized inputs.
func Score(term, title string) int {
	na, nb := Normalize(term), Normalize(title)
	ts := tokenSetRatio(na, nb)
	pr := partialRatio(na, nb)
	if pr > ts {
		return pr
	}
	return ts
}

func ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return (longest - d) * 100 / longest
}

func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(string(short), string(long[i:i+len(short)]))
		if r > best {
			best = r
		}
		if best == 100 {
			break
		}
	}
	return best
}

func tokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	var inter, restA, restB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter = append(inter, tok)
		} else {
			restA = append(restA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			restB = append(restB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(restA)
	sort.Strings(restB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(restA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(restB, " "))

	best := ratio(t1, t2)
	// An empty intersection must not trivially score 100 against either side.
	if t0 != "" {
		if r := ratio(t0, t1); r > best {
			best = r
		}
		if r := ratio(t0, t2); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
