package message

import "testing"

type testTarget struct{ dead bool }

func (t *testTarget) Dead() bool { return t.dead }

func TestPermanentPrefixStripped(t *testing.T) {
	m := NewMessage(ScopeGlobal, nil, 0, "@stay forever", 0, 10)
	if !m.Permanent {
		t.Fatal("expected @-prefixed message to be permanent")
	}
	if m.Text != "stay forever" {
		t.Fatalf("Text = %q, want %q", m.Text, "stay forever")
	}
}

func TestStepDropsExpiredAndDeadTarget(t *testing.T) {
	var l List
	tgt := &testTarget{}
	l.Add(NewMessage(ScopeTarget, tgt, 0, "hi", 0, 5))
	l.Add(NewMessage(ScopeGlobal, nil, 0, "@forever", 0, 5))

	l.Step(10) // first message's ExpireAt=5 has passed
	if len(l.items) != 1 {
		t.Fatalf("expected 1 survivor after expiry, got %d", len(l.items))
	}
	if !l.items[0].Permanent {
		t.Fatal("expected the permanent message to survive expiry")
	}

	tgt.dead = true
	var l2 List
	l2.Add(NewMessage(ScopeTarget, tgt, 0, "@forever but targeted", 0, 100))
	l2.Step(1)
	if len(l2.items) != 0 {
		t.Fatal("expected dead-target message to be dropped even when permanent")
	}
}

func TestClearPointersSweepsAllMessagesForTarget(t *testing.T) {
	var l List
	tgt := &testTarget{}
	other := &testTarget{}
	l.Add(NewMessage(ScopeTarget, tgt, 0, "a", 0, 100))
	l.Add(NewMessage(ScopeTarget, other, 0, "b", 0, 100))
	l.Add(NewMessage(ScopeTarget, tgt, 0, "c", 0, 100))

	l.ClearPointers(tgt)
	if len(l.items) != 1 || l.items[0].Target != other {
		t.Fatalf("expected only other's message to survive, got %+v", l.items)
	}
}

func TestVisibleFiltersByPlayerScope(t *testing.T) {
	var l List
	l.Add(NewMessage(ScopeGlobal, nil, 0, "everyone", 0, 100))
	l.Add(NewMessage(ScopeGlobalPlayer, nil, 1, "p1 only", 0, 100))
	l.Add(NewMessage(ScopeGlobalPlayer, nil, 2, "p2 only", 0, 100))

	got := l.Visible(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 visible messages for player 1, got %d", len(got))
	}
}

func TestWrapSplitsOnMeasuredWidth(t *testing.T) {
	measure := func(s string) int { return len(s) }
	lines := Wrap("one two three four", 7, measure)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping to produce multiple lines, got %v", lines)
	}
	for _, ln := range lines {
		if measure(ln) > 7+4 { // allow a single overlong word through
			t.Fatalf("line %q exceeds width budget", ln)
		}
	}
}

func TestWrapNilMeasureReturnsSingleLine(t *testing.T) {
	lines := Wrap("anything at all", 5, nil)
	if len(lines) != 1 || lines[0] != "anything at all" {
		t.Fatalf("expected passthrough with nil measure, got %v", lines)
	}
}
