package handlers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"telegram-mood-tracker/internal/models"
)

var labelLineRx = regexp.MustCompile(`^\s*([^:]+?)\s*:\s*(.*?)\s*$`)

// label prefixes per field, already folded (lowercase, no accents)
var fieldLabels = []struct {
	state    models.State
	prefixes []string
}{
	{models.StateDuration, []string{"duree", "duration", "depuis"}},
	{models.StateReason, []string{"raison", "reason", "pourquoi"}},
	{models.StateThoughts, []string{"pensee", "thought"}},
	{models.StateDesire, []string{"envie", "desir", "desire", "want"}},
	{models.StateChoice, []string{"choix", "choice", "solution"}},
}

// fold lowercases s and strips diacritics: "Pensées" -> "pensees".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func fieldForLabel(label string) (models.State, bool) {
	l := fold(label)
	for _, f := range fieldLabels {
		for _, p := range f.prefixes {
			if strings.HasPrefix(l, p) {
				return f.state, true
			}
		}
	}
	return "", false
}

// ParseDetails extracts the five fields from a single "Label: value" block.
// Unknown lines are ignored, missing fields stay empty and the first
// occurrence of a label wins.
func ParseDetails(text string) models.Answers {
	var a models.Answers
	seen := map[models.State]bool{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		m := labelLineRx.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		st, ok := fieldForLabel(m[1])
		if !ok || seen[st] {
			continue
		}
		seen[st] = true
		setAnswer(&a, st, m[2])
	}
	return a
}

func setAnswer(a *models.Answers, st models.State, v string) {
	switch st {
	case models.StateDuration:
		a.DurationH = v
	case models.StateReason:
		a.Reason = v
	case models.StateThoughts:
		a.Thoughts = v
	case models.StateDesire:
		a.Desire = v
	case models.StateChoice:
		a.Choice = v
	}
}

// NormalizeChoice maps free text onto one of Actions when a name or a
// distinctive word of it appears ("sauna ce soir" -> "Sauna"). Anything else
// is returned unchanged.
func NormalizeChoice(text string) string {
	t := fold(text)
	if t == "" {
		return text
	}
	for _, action := range Actions {
		if strings.Contains(t, fold(action)) {
			return action
		}
	}
	for _, action := range Actions {
		for _, w := range strings.FieldsFunc(fold(action), func(r rune) bool { return r == ' ' || r == '/' }) {
			if len(w) >= 4 && strings.Contains(t, w) {
				return action
			}
		}
	}
	return text
}
