// Package message implements the per-section message/scoreboard overlay
// list: target-scoped messages that expire by frame or persist when
// `@`-prefixed, and are swept when their target object dies, grounded in
// spec §4.O. No teacher equivalent; the "slice of live entries with a
// ClearPointers(obj) sweep" shape follows the registry-of-live-instances
// idiom used for `internal/solidmask`'s Registry.
package message

// Scope selects who a message is visible to.
type Scope int

const (
	ScopeTarget Scope = iota
	ScopeTargetPlayer
	ScopeGlobal
	ScopeGlobalPlayer
)

// Target is the minimal surface a message needs from its bound object.
type Target interface {
	Dead() bool
}

// Message is one overlay entry.
type Message struct {
	Scope     Scope
	Target    Target
	Player    int // only meaningful for *Player scopes
	Text      string
	Permanent bool // set when Text was `@`-prefixed at creation
	ExpireAt  int64
}

// NewMessage builds a message, stripping and recording the `@`
// permanence prefix.
func NewMessage(scope Scope, target Target, player int, text string, frame int64, lifetime int64) Message {
	permanent := false
	if len(text) > 0 && text[0] == '@' {
		permanent = true
		text = text[1:]
	}
	return Message{Scope: scope, Target: target, Player: player, Text: text, Permanent: permanent, ExpireAt: frame + lifetime}
}

// List is a per-section collection of live messages.
type List struct {
	items []Message
}

// Add appends a message.
func (l *List) Add(m Message) {
	l.items = append(l.items, m)
}

// Step drops every expired, non-permanent message and every message
// whose target has died, for the current frame.
func (l *List) Step(frame int64) {
	kept := l.items[:0]
	for _, m := range l.items {
		if m.Target != nil && m.Target.Dead() {
			continue
		}
		if !m.Permanent && m.ExpireAt <= frame {
			continue
		}
		kept = append(kept, m)
	}
	l.items = kept
}

// ClearPointers removes every message bound to obj, independent of
// expiry — used when an object is destroyed outside the normal Step
// cadence (e.g. mid-frame via script Remove).
func (l *List) ClearPointers(obj Target) {
	kept := l.items[:0]
	for _, m := range l.items {
		if m.Target == obj {
			continue
		}
		kept = append(kept, m)
	}
	l.items = kept
}

// Visible returns every message whose scope and player match the given
// viewer, in list order.
func (l *List) Visible(player int) []Message {
	var out []Message
	for _, m := range l.items {
		switch m.Scope {
		case ScopeGlobal, ScopeTarget:
			out = append(out, m)
		case ScopeGlobalPlayer, ScopeTargetPlayer:
			if m.Player == player {
				out = append(out, m)
			}
		}
	}
	return out
}

// Wrap breaks text into lines no wider than width columns, measured via
// the supplied font-metrics function (external service per §4.O) rather
// than raw rune count, since glyph widths vary.
func Wrap(text string, width int, measure func(s string) int) []string {
	if measure == nil || width <= 0 {
		return []string{text}
	}
	var lines []string
	var cur []rune
	lineWidth := 0
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
			lineWidth = 0
		}
	}
	for _, word := range splitWords(text) {
		w := measure(word)
		sep := 0
		if len(cur) > 0 {
			sep = measure(" ")
		}
		if lineWidth+sep+w > width && len(cur) > 0 {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
			lineWidth += sep
		}
		cur = append(cur, []rune(word)...)
		lineWidth += w
	}
	flush()
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == ' ' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}
