package lexer_test

import (
	"testing"

	"tinyrv.dev/compiler/pkg/lexer"
	"tinyrv.dev/compiler/pkg/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	tokens, err := lexer.Tokenize("a == b != c <= d >= e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lexemes := []string{}
	for _, tok := range tokens {
		if tok.Kind != token.Eof {
			lexemes = append(lexemes, tok.Lexeme)
		}
	}
	want := []string{"a", "==", "b", "!=", "c", "<=", "d", ">=", "e"}
	if len(lexemes) != len(want) {
		t.Fatalf("got %v, want %v", lexemes, want)
	}
	for i := range want {
		if lexemes[i] != want[i] {
			t.Errorf("lexeme %d = %q, want %q", i, lexemes[i], want[i])
		}
	}
}

func TestTokenizeKeywordVsIdent(t *testing.T) {
	tokens, err := lexer.Tokenize("if iffy return returning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKinds := []token.Kind{token.Keyword, token.Ident, token.Keyword, token.Ident, token.Eof}
	got := kinds(tokens)
	if len(got) != len(wantKinds) {
		t.Fatalf("got %v, want %v", got, wantKinds)
	}
	for i := range wantKinds {
		if got[i] != wantKinds[i] {
			t.Errorf("kind %d = %s, want %s", i, got[i], wantKinds[i])
		}
	}
}

func TestTokenizeNumberNotCapturedAsIdent(t *testing.T) {
	tokens, err := lexer.Tokenize("42abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != token.Number || tokens[0].Value != 42 {
		t.Fatalf("first token = %v, want Number(42)", tokens[0])
	}
	if tokens[1].Kind != token.Ident || tokens[1].Lexeme != "abc" {
		t.Fatalf("second token = %v, want Ident(abc)", tokens[1])
	}
}

func TestTokenizeEndsWithExactlyOneEOF(t *testing.T) {
	test := func(source string) {
		tokens, err := lexer.Tokenize(source)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", source, err)
		}
		if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.Eof {
			t.Fatalf("tokens for %q do not end with EOF: %v", source, tokens)
		}
		for _, tok := range tokens[:len(tokens)-1] {
			if tok.Kind == token.Eof {
				t.Fatalf("unexpected EOF token before the end for %q: %v", source, tokens)
			}
		}
	}

	test("")
	test("a = 1;")
	test("return 1 + 2 * 3;")
}

func TestTokenizeFailsOnUnknownCharacter(t *testing.T) {
	_, err := lexer.Tokenize("a $ b")
	if err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
}
