// Package optimizer shrinks prompts to fit a backend's context limit. The
// transformation is pure: same prompt, descriptor and settings always
// produce the same output.
package optimizer

import (
	"strings"
	"unicode/utf8"

	"inferd/internal/config"
	"inferd/pkg/types"
)

// TruncationMarker is appended whenever content was dropped so downstream
// consumers can detect information loss.
const TruncationMarker = "[...content truncated for memory optimization...]"

// Optimize returns the prompt shrunk to b.MaxPromptChars. Prompts already
// within the limit are returned unchanged (identity), as is everything when
// truncation is disabled. The second return reports whether truncation
// occurred.
func Optimize(prompt string, b types.Backend, s *config.Settings) (string, bool) {
	limit := b.MaxPromptChars
	if limit <= 0 || len(prompt) <= limit {
		return prompt, false
	}
	if s != nil && !s.TruncationEnabled() {
		return prompt, false
	}

	// Reserve room for the marker and its separating newline.
	budget := limit - len(TruncationMarker) - 1
	if budget < 0 {
		budget = 0
	}

	segs := splitTurns(prompt)
	segs = dropOldestTurns(segs, budget)
	if totalLen(segs) > budget {
		segs = trimFreeText(segs, budget)
	}

	var sb strings.Builder
	for i, seg := range segs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(seg.text)
	}
	sb.WriteString("\n")
	sb.WriteString(TruncationMarker)
	return sb.String(), true
}

// segment is one conversational turn, delimited by blank lines.
type segment struct {
	text   string
	system bool
}

func splitTurns(prompt string) []segment {
	parts := strings.Split(prompt, "\n\n")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, segment{text: p, system: isSystem(p)})
	}
	return segs
}

// isSystem reports whether a turn carries explicit system instructions,
// which are always preserved in full.
func isSystem(turn string) bool {
	t := strings.ToLower(strings.TrimSpace(turn))
	return strings.HasPrefix(t, "system:") || strings.HasPrefix(t, "[system]")
}

// dropOldestTurns removes non-system turns oldest-first until the remaining
// text fits the budget or only the most recent exchange (the final two
// turns) and system turns remain.
func dropOldestTurns(segs []segment, budget int) []segment {
	for totalLen(segs) > budget {
		dropped := false
		for i, seg := range segs {
			if seg.system {
				continue
			}
			if i >= len(segs)-2 {
				break // keep the most recent exchange
			}
			segs = append(segs[:i:i], segs[i+1:]...)
			dropped = true
			break
		}
		if !dropped {
			break
		}
	}
	return segs
}

// trimFreeText proportionally shortens unstructured lines in the remaining
// turns. Structured lines (column lists, numeric values) are kept verbatim.
func trimFreeText(segs []segment, budget int) []segment {
	structured := 0
	free := 0
	for _, seg := range segs {
		for _, line := range strings.Split(seg.text, "\n") {
			if isStructured(line) {
				structured += len(line) + 1
			} else {
				free += len(line) + 1
			}
		}
	}
	freeBudget := budget - structured
	if freeBudget < 0 {
		freeBudget = 0
	}
	if free == 0 {
		return segs
	}
	// Integer ratio in per-mille so the cut is deterministic across platforms.
	ratio := freeBudget * 1000 / free
	if ratio >= 1000 {
		return segs
	}

	out := make([]segment, 0, len(segs))
	for _, seg := range segs {
		lines := strings.Split(seg.text, "\n")
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if isStructured(line) {
				kept = append(kept, line)
				continue
			}
			n := len(line) * ratio / 1000
			// n is a byte offset; never cut inside a multi-byte rune.
			for n > 0 && !utf8.RuneStart(line[n]) {
				n--
			}
			kept = append(kept, line[:n])
		}
		out = append(out, segment{text: strings.Join(kept, "\n"), system: seg.system})
	}
	return out
}

// isStructured reports whether a line looks like data rather than prose:
// delimited columns, key/value pairs, or numeric content.
func isStructured(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	if strings.ContainsAny(t, ",|\t") {
		return true
	}
	if strings.Contains(t, ":") && !strings.Contains(t, " : ") {
		return true
	}
	digits := 0
	for _, r := range t {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*4 >= len(t) // at least a quarter digits
}

func totalLen(segs []segment) int {
	n := 0
	for i, seg := range segs {
		if i > 0 {
			n += 2
		}
		n += len(seg.text)
	}
	return n
}
