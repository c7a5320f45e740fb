package core

import (
	"errors"
	"strings"
	"testing"
)

func mustPreview(t *testing.T, input string) Preview {
	t.Helper()
	p, err := ParsePreview(strings.NewReader(input), 5)
	if err != nil {
		t.Fatalf("ParsePreview() error = %v", err)
	}
	return p
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		mode  Mode
		value string
		want  bool
	}{
		{ModeVerify, "a@x.com", true},
		{ModeVerify, "  A.B+tag@Sub.Example.ORG  ", true},
		{ModeVerify, "a@x", false},
		{ModeVerify, "a b@x.com", false},
		{ModeVerify, "@x.com", false},
		{ModeVerify, "a@@x.com", false},
		{ModeVerify, "", false},
		{ModeExtract, "http://site.com", true},
		{ModeExtract, "  https://site.com/path", true},
		{ModeExtract, "httpfoo", true},
		{ModeExtract, "www.site.com", false},
		{ModeExtract, "notaurl", false},
		{Mode("other"), "a@x.com", false},
	}

	for _, tt := range tests {
		if got := IsCandidate(tt.mode, tt.value); got != tt.want {
			t.Errorf("IsCandidate(%s, %q) = %v, want %v", tt.mode, tt.value, got, tt.want)
		}
	}
}

func TestDetectColumn_PicksFirstCandidateField(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		input string
		want  string
	}{
		{
			name:  "email in second column",
			mode:  ModeVerify,
			input: "name,email,backup\nAnn,ann@x.com,ann@y.com\n",
			want:  "email",
		},
		{
			name:  "header order wins over row order",
			mode:  ModeVerify,
			input: "a,b\nnone,b@x.com\na@x.com,none\n",
			want:  "a",
		},
		{
			name:  "only a later row has a candidate",
			mode:  ModeExtract,
			input: "name,site\nAnn,\nBob,\nCy,https://cy.dev\n",
			want:  "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectColumn(tt.mode, mustPreview(t, tt.input))
			if err != nil {
				t.Fatalf("DetectColumn() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectColumn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectColumn_NoCandidates(t *testing.T) {
	p := mustPreview(t, "name,site\nAnn,ann.dev\nBob,bob.dev\n")

	_, err := DetectColumn(ModeExtract, p)
	if !errors.Is(err, ErrNoCandidateFound) {
		t.Fatalf("DetectColumn() error = %v, want ErrNoCandidateFound", err)
	}
	var ce *CandidateError
	if !errors.As(err, &ce) || ce.Mode != ModeExtract {
		t.Errorf("error should be a *CandidateError for extract mode: %v", err)
	}
}

func TestDetectColumn_OnlyLooksAtPreview(t *testing.T) {
	var b strings.Builder
	b.WriteString("email\n")
	for i := 0; i < 5; i++ {
		b.WriteString("nobody\n")
	}
	b.WriteString("late@x.com\n")

	_, err := DetectColumn(ModeVerify, mustPreview(t, b.String()))
	if !errors.Is(err, ErrNoCandidateFound) {
		t.Errorf("DetectColumn() error = %v, want ErrNoCandidateFound for a candidate beyond the preview", err)
	}
}

func TestValidateColumn(t *testing.T) {
	p := mustPreview(t, "name,email\nAnn,ann@x.com\n")

	if err := ValidateColumn(ModeVerify, p, "email"); err != nil {
		t.Errorf("ValidateColumn(email) = %v, want nil", err)
	}
	if err := ValidateColumn(ModeVerify, p, "name"); !errors.Is(err, ErrColumnHasNoValidValues) {
		t.Errorf("ValidateColumn(name) = %v, want ErrColumnHasNoValidValues", err)
	}
	if err := ValidateColumn(ModeVerify, p, "phone"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ValidateColumn(phone) = %v, want ErrUnknownColumn", err)
	}
}

func TestCandidateCounts(t *testing.T) {
	p := mustPreview(t, "a,b,c\nx@y.com,no,z@y.com\nq@y.com,,\n")

	got := CandidateCounts(ModeVerify, p)
	want := []ColumnCount{{"a", 2}, {"b", 0}, {"c", 1}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
