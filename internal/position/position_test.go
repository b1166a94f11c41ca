package position

import "testing"

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos      Position
		expected string
	}{
		{Position{Filename: "main.blitz", Line: 3, Column: 7}, "main.blitz:3:7"},
		{Position{Filename: "src/sub/main.blitz", Line: 1, Column: 1}, "main.blitz:1:1"},
		{Position{Line: 1, Column: 1}, "1:1"},
	}

	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.expected {
			t.Errorf("String() wrong. expected=%q, got=%q", tt.expected, got)
		}
	}
}

func TestPositionIsValid(t *testing.T) {
	valid := Position{Line: 1, Column: 1, Offset: 0}
	if !valid.IsValid() {
		t.Errorf("expected %s to be valid", valid)
	}
	if (Position{}).IsValid() {
		t.Errorf("zero position should not be valid")
	}
	if (Position{Line: 1, Offset: 3}).IsValid() {
		t.Errorf("position without a column should not be valid")
	}
}

func TestPositionBefore(t *testing.T) {
	a := Position{Line: 2, Column: 5, Offset: 10}
	b := Position{Line: 2, Column: 9, Offset: 14}
	c := Position{Line: 3, Column: 1, Offset: 20}

	if !a.Before(b) {
		t.Errorf("expected %s before %s", a, b)
	}
	if !b.Before(c) {
		t.Errorf("expected %s before %s", b, c)
	}
	if c.Before(a) {
		t.Errorf("did not expect %s before %s", c, a)
	}
	if a.Before(a) {
		t.Errorf("did not expect %s before itself", a)
	}
}

func TestSpanString(t *testing.T) {
	oneLine := Span{
		Start: Position{Filename: "main.blitz", Line: 2, Column: 3, Offset: 12},
		End:   Position{Filename: "main.blitz", Line: 2, Column: 8, Offset: 17},
	}
	if got := oneLine.String(); got != "main.blitz:2:3-8" {
		t.Errorf("single-line span wrong. expected=%q, got=%q", "main.blitz:2:3-8", got)
	}

	multiLine := Span{
		Start: Position{Line: 2, Column: 3, Offset: 12},
		End:   Position{Line: 4, Column: 1, Offset: 30},
	}
	if got := multiLine.String(); got != "2:3-4:1" {
		t.Errorf("multi-line span wrong. expected=%q, got=%q", "2:3-4:1", got)
	}
}

func TestSpanBetween(t *testing.T) {
	start := Position{Filename: "main.blitz", Line: 1, Column: 1, Offset: 0}
	end := Position{Filename: "main.blitz", Line: 1, Column: 3, Offset: 2}

	span := Between(start, end)
	if !span.IsValid() {
		t.Fatalf("span %s should be valid", span)
	}
	if span.Start != start || span.End != end {
		t.Errorf("span endpoints wrong. got start=%s end=%s", span.Start, span.End)
	}

	backwards := Between(end, start)
	if backwards.IsValid() {
		t.Errorf("backwards span should not be valid")
	}
}
