package xpath

import "testing"

func tokenTypes(src string) []TokenType {
	l := NewLexer(src)
	var out []TokenType
	for {
		tok := l.Next()
		out = append(out, tok.Type)
		if tok.Type == EOF {
			return out
		}
	}
}

func TestLexerWildcardDisambiguation(t *testing.T) {
	l := NewLexer("a * b")
	l.Next() // a
	star := l.Next()
	if star.Type != Star || star.Wildcard {
		t.Fatalf("expected multiply Star, got %+v", star)
	}

	l2 := NewLexer("/a/*")
	l2.Next() // Slash
	l2.Next() // a
	l2.Next() // Slash
	star2 := l2.Next()
	if star2.Type != Star || !star2.Wildcard {
		t.Fatalf("expected wildcard Star, got %+v", star2)
	}
}

func TestLexerLessThanVsConstructor(t *testing.T) {
	got := tokenTypes("1 < 2")
	want := []TokenType{Number, Lt, Number, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestLexerDirectConstructorTags(t *testing.T) {
	l := NewLexer(`<a b="c">text</a>`)
	tok := l.Next()
	if tok.Type != TagOpen || tok.Value != "a" {
		t.Fatalf("got %+v, want TagOpen a", tok)
	}
	attr := l.Next()
	if attr.Type != AttrName || attr.Value != "b" {
		t.Fatalf("got %+v, want AttrName b", attr)
	}
	eq := l.Next()
	if eq.Type != Eq {
		t.Fatalf("got %+v, want Eq", eq)
	}
	val := l.Next()
	if val.Type != String || val.Value != "c" {
		t.Fatalf("got %+v, want String c", val)
	}
	close := l.Next()
	if close.Type != TagClose {
		t.Fatalf("got %+v, want TagClose", close)
	}
	text := l.Next()
	if text.Type != ConstrText || text.Value != "text" {
		t.Fatalf("got %+v, want ConstrText text", text)
	}
	end := l.Next()
	if end.Type != TagEndOpen || end.Value != "a" {
		t.Fatalf("got %+v, want TagEndOpen a", end)
	}
	eof := l.Next()
	if eof.Type != EOF {
		t.Fatalf("got %+v, want EOF", eof)
	}
}

func TestLexerNestedConstructorReturnsToTop(t *testing.T) {
	got := tokenTypes(`<a><b/></a>, 1`)
	// After the outer element closes, the lexer must be back in modeTop
	// to lex the trailing ", 1" sequence rather than treating it as
	// element content.
	foundComma := false
	for _, tt := range got {
		if tt == Comma {
			foundComma = true
		}
	}
	if !foundComma {
		t.Fatalf("expected a Comma token after the constructor, got %v", got)
	}
}
