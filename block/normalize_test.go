package block

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses runs", "a  b\t c", "a b c"},
		{"trims edges", "  hello world \n", "hello world"},
		{"newlines become spaces", "line one\nline two", "line one line two"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.in); got != tc.want {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello world", "hello world", 1},
		{"disjoint", "alpha beta", "gamma delta", 0},
		{"subset scores against smaller set", "hello world", "hello world again and again", 1},
		{"partial", "the quick brown fox", "the slow brown dog", 0.5},
		{"empty side", "", "hello", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlap(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlap(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestKeyTextBlocks(t *testing.T) {
	a := ContentBlock{Kind: KindHeading, Level: 2, Text: "Getting  Started"}
	b := ContentBlock{Kind: KindHeading, Level: 2, Text: "Getting Started"}
	if Key(a, 0) != Key(b, 0) {
		t.Fatalf("normalized headings should share a key: %q vs %q", Key(a, 0), Key(b, 0))
	}

	c := ContentBlock{Kind: KindHeading, Level: 3, Text: "Getting Started"}
	if Key(a, 0) == Key(c, 0) {
		t.Fatal("heading level must participate in the key")
	}

	d := ContentBlock{Kind: KindParagraph, Text: "Getting Started"}
	if Key(a, 0) == Key(d, 0) {
		t.Fatal("kind must participate in the key")
	}
}

func TestKeyPrefixTruncation(t *testing.T) {
	long := make([]rune, 0, 260)
	for i := 0; i < 130; i++ {
		long = append(long, 'a', ' ')
	}
	base := string(long)
	a := ContentBlock{Kind: KindParagraph, Text: base + "tail one"}
	b := ContentBlock{Kind: KindParagraph, Text: base + "tail two"}
	if Key(a, 100) != Key(b, 100) {
		t.Fatal("texts differing past the prefix should share a key")
	}
	if Key(a, 1000) == Key(b, 1000) {
		t.Fatal("longer prefix should separate the keys")
	}
}

func TestKeyTables(t *testing.T) {
	a := ContentBlock{Kind: KindTable, Rows: [][]string{{"Name", "Role"}, {"Ada", "Engineer"}}}
	b := ContentBlock{Kind: KindTable, Rows: [][]string{{"name", "role"}, {"ada", "engineer"}}}
	if Key(a, 0) != Key(b, 0) {
		t.Fatal("table keys should be case-insensitive over cells")
	}

	c := ContentBlock{Kind: KindTable, Rows: [][]string{{"Name", "Role"}, {"Ada", "Poet"}}}
	if Key(a, 0) == Key(c, 0) {
		t.Fatal("different cell content should change the table key")
	}

	d := ContentBlock{Kind: KindTable, Rows: [][]string{{"Name", "Role"}}}
	if Key(a, 0) == Key(d, 0) {
		t.Fatal("row count should change the table key")
	}
}

func TestNormalizeRow(t *testing.T) {
	got := NormalizeRow([]string{" Name ", "ROLE  x"})
	if got != "name|role x" {
		t.Fatalf("NormalizeRow = %q", got)
	}
}
