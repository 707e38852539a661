package witness

import (
	"reflect"
	"testing"
)

var eclmSuffixes = []string{"*", "T", "C", "C1", "C2", "C3", "A", "A1", "A2", "K", "K1", "K2", "/1", "/2"}

func TestTEI_Normalize(t *testing.T) {
	normalizer := NewTEI(eclmSuffixes)

	tests := []struct {
		token string
		want  string
	}{
		{"#01", "01"},
		{"01", "01"},
		{"#01*", "01"},
		{"#03C2", "03"},
		{"#1739T", "1739"},
		{"#1739/1", "1739"},
		{"#2344C*", "2344"},
		{"#P74", "P74"},
		{"*", "*"},
		{"#", "#"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := normalizer.Normalize(tt.token); got != tt.want {
				t.Errorf("Normalize(%q): got %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestTEI_NormalizeSuffixOrder(t *testing.T) {
	// Suffixes are tried in configured order, first match per pass.
	normalizer := NewTEI([]string{"1", "C"})
	if got := normalizer.Normalize("#01C1"); got != "0" {
		t.Errorf("got %q, want %q", got, "0")
	}

	normalizer = NewTEI([]string{"C1"})
	if got := normalizer.Normalize("#01C1"); got != "01" {
		t.Errorf("got %q, want %q", got, "01")
	}
}

func TestTEI_TokensAndEmptySuffix(t *testing.T) {
	normalizer := NewTEI([]string{"", "*"})
	tokens := normalizer.Tokens("  #01*  #02\n#03 ")
	want := []string{"#01*", "#02", "#03"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("Tokens: got %v, want %v", tokens, want)
	}
	if got := normalizer.Normalize(tokens[0]); got != "01" {
		t.Errorf("Normalize: got %q, want %q", got, "01")
	}
}

func TestVMR_Normalize(t *testing.T) {
	normalizer := NewVMR([]string{"*", "C", "C1", "T", "A", "K"})

	tests := []struct {
		token string
		want  string
	}{
		{"01", "01"},
		{"01*", "01"},
		{"01C1", "01"},
		{"1739f", "1739"},
		{"1739f2", "1739"},
		{"2344V", "2344"},
		{"2344VT", "2344"},
		{"P74f*", "P74"},
		{"[03]", "03"},
		{"syh>", "syh"},
		{"Ormss", "Or"},
		{"Cyrms", "Cyr"},
		{"L1188", "L1188"},
		{"f", "f"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := normalizer.Normalize(tt.token); got != tt.want {
				t.Errorf("Normalize(%q): got %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestVMR_Preprocess(t *testing.T) {
	normalizer := NewVMR(nil)

	tests := []struct {
		name    string
		support string
		want    string
	}{
		{"brackets", "01 [03] 1739", "01 03 1739"},
		{"angle brackets", "01 syh> copbo>", "01 syh copbo"},
		{"parenthetical expansion", "X1(a,b)", "X1a X1b"},
		{"parenthetical with spaces", "2805(S, T) 01", "2805S 2805T 01"},
		{"parenthetical base normalized", "1739f(A)", "1739A"},
		{"collection markers", "01 Ormss Cyrms 1739", "01 Or Cyr 1739"},
		{"manuscript keeps ms", "1739ms", "1739ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizer.Preprocess(tt.support); got != tt.want {
				t.Errorf("Preprocess(%q): got %q, want %q", tt.support, got, tt.want)
			}
		})
	}
}

func TestVMR_TokensStopAtNonManuscript(t *testing.T) {
	normalizer := NewVMR(nil)

	tokens := normalizer.Tokens("01 03 [1739] Or 2344 syh>")
	want := []string{"01", "03", "1739"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokens: got %v, want %v", tokens, want)
	}

	if tokens := normalizer.Tokens("Cyr 01"); len(tokens) != 0 {
		t.Errorf("Tokens starting with a father: got %v, want none", tokens)
	}
}

func TestVMR_TokensExpandManuscriptParenthetical(t *testing.T) {
	normalizer := NewVMR(nil)
	tokens := normalizer.Tokens("2805(S,T) 01")
	want := []string{"2805S", "2805T", "01"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokens: got %v, want %v", tokens, want)
	}
}

func TestIsManuscript(t *testing.T) {
	tests := map[string]bool{
		"01":    true,
		"1739":  true,
		"P74":   true,
		"L1188": true,
		"Or":    false,
		"syh":   false,
		"X1":    false,
	}
	for siglum, want := range tests {
		if got := IsManuscript(siglum); got != want {
			t.Errorf("IsManuscript(%q): got %v, want %v", siglum, got, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	suffixSets := [][]string{
		nil,
		{"*"},
		eclmSuffixes,
		{"1", "C", "f", "V", "ms"},
		{"", "#", "]"},
	}
	tokens := []string{
		"", "#", "##01", "#01*", "01C1*", "1739f2V", "P74ff", "[03]>", "Ormss", "Cyrmsms",
		"X1(a,b)", "2344VT", "L1188K2", "#03C2/1", "f", "V", "mss", "#]", "1739f(A)",
	}

	normalizers := map[string]func([]string) Normalizer{
		"TEI": func(suffixes []string) Normalizer { return NewTEI(suffixes) },
		"VMR": func(suffixes []string) Normalizer { return NewVMR(suffixes) },
	}

	for name, build := range normalizers {
		for _, suffixes := range suffixSets {
			normalizer := build(suffixes)
			for _, token := range tokens {
				once := normalizer.Normalize(token)
				twice := normalizer.Normalize(once)
				if once != twice {
					t.Errorf("%s%v: Normalize(%q) = %q but Normalize(%q) = %q", name, suffixes, token, once, once, twice)
				}
			}
		}
	}
}
