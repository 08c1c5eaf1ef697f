package excerpt

import "testing"

func TestIsSectionHeader(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"1) Overview", true},
		{"12)  Output Format", true},
		{"1) do the thing", false},
		{"## 2) Rules", true},
		{"# Role", true},
		{"###### Deep heading", true},
		{"#lowercase", false},
		{"## lowercase heading", false},
		{"Output:", true},
		{"Output Format:  ", false}, // trailing whitespace counts as indentation
		{"Output Format:", true},
		{"Note: keep answers short", false},
		{"This sentence is far too long to be a section label at all:", false},
		{"## Output (strict)", true},
		{"Rules (optional):", false},
		{"Constraints:(strict)", true},
		{"---", true},
		{"=====", true},
		{"***", true},
		{"-=-", false},
		{"--", false},
		{"--- note", false},
		{"  # Indented heading", false},
		{"\tOutput:", false},
		{"You are a helpful assistant.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSectionHeader(tt.line); got != tt.want {
			t.Errorf("IsSectionHeader(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "strips headers keeps code",
			in:   "## Output\nReturn JSON only.\n\nOutput:\n  {\"ok\": true}",
			want: "Return JSON only.\n\n  {\"ok\": true}",
		},
		{
			name: "trims surrounding blank lines",
			in:   "\n\n1) Context\n\nYou are a reviewer.\n---\n\n",
			want: "You are a reviewer.",
		},
		{
			name: "preserves first line indentation",
			in:   "# Title\n    indented()\nnext",
			want: "    indented()\nnext",
		},
		{
			name: "all headers returns original",
			in:   "## Rules\n---\nOutput:",
			want: "## Rules\n---\nOutput:",
		},
		{
			name: "blank and headers only returns original",
			in:   "Output:\n\n",
			want: "Output:\n\n",
		},
		{
			name: "lowercase numbered steps are content",
			in:   "1) read the file\n2) answer",
			want: "1) read the file\n2) answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"## Output\nReturn JSON only.",
		"\n  Output:\nOutput:\n",
		"## Rules\n---",
		"1) Overview\n  1) Nested\n# H\nbody\n\n",
		"Plain prompt text\nwith two lines",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestClean_NeverEmptiesNonEmptyInput(t *testing.T) {
	inputs := []string{"---", "# A\n# B", "Output:", "\n\n", "1) Header (strict)"}
	for _, in := range inputs {
		if got := Clean(in); got == "" {
			t.Errorf("Clean(%q) returned empty output", in)
		}
	}
}
