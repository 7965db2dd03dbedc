package sanitize_test

import (
	"strings"
	"testing"

	"tgcdl/pkg/sanitize"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean name unchanged",
			input: "The Black Death",
			want:  "The Black Death",
		},
		{
			name:  "forbidden characters replaced",
			input: `A/B\C%D;E*F|G"H<I>J`,
			want:  "A_B_C_D_E_F_G_H_I_J",
		},
		{
			name:  "subtitle colon becomes dash",
			input: "Rome: The Rise of an Empire",
			want:  "Rome - The Rise of an Empire",
		},
		{
			name:  "bare colon becomes dash",
			input: "12:30 Lecture",
			want:  "12-30 Lecture",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitize.Filename(tc.input); got != tc.want {
				t.Errorf("Filename(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFilenameUnderscored(t *testing.T) {
	got := sanitize.FilenameUnderscored("Myth: Fact or Fiction?")
	want := "Myth_ Fact or Fiction?"

	if got != want {
		t.Errorf("FilenameUnderscored = %q, want %q", got, want)
	}
}

func TestFilenameTruncated(t *testing.T) {
	long := strings.Repeat("a", 300)

	if got := sanitize.Filename(long); len(got) != 255 {
		t.Errorf("Filename length = %d, want 255", len(got))
	}
}
