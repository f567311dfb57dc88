package video

import "testing"

func TestExtractID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "full watch URL",
			input: "https://www.youtube.com/watch?v=a4sHHnlasPQ",
			want:  "a4sHHnlasPQ",
		},
		{
			name:  "bare ID passes through",
			input: "a4sHHnlasPQ",
			want:  "a4sHHnlasPQ",
		},
		{
			name:  "marker with trailing query params",
			input: "v=abc-123&t=5",
			want:  "abc-123",
		},
		{
			name:  "URL with extra params after the ID",
			input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=2",
			want:  "dQw4w9WgXcQ",
		},
		{
			name:  "leftmost marker wins",
			input: "v=first_id&other=v=second",
			want:  "first_id",
		},
		{
			name:  "ID with underscore and hyphen",
			input: "https://www.youtube.com/watch?v=_x-9zQ2b3cD",
			want:  "_x-9zQ2b3cD",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "marker with no ID characters",
			input: "v=&t=5",
			want:  "v=&t=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractID(tt.input); got != tt.want {
				t.Errorf("ExtractID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsID(t *testing.T) {
	valid := []string{"a4sHHnlasPQ", "_x-9zQ2b3cD", "dQw4w9WgXcQ"}
	for _, id := range valid {
		if !IsID(id) {
			t.Errorf("IsID(%q) = false, want true", id)
		}
	}

	invalid := []string{"", "abc/def", "../abc", "x/../../data", "a b", "v=abc&t=5", ".."}
	for _, id := range invalid {
		if IsID(id) {
			t.Errorf("IsID(%q) = true, want false", id)
		}
	}
}

func TestWatchURL(t *testing.T) {
	got := WatchURL("a4sHHnlasPQ")
	want := "https://www.youtube.com/watch?v=a4sHHnlasPQ"
	if got != want {
		t.Errorf("WatchURL(%q) = %q, want %q", "a4sHHnlasPQ", got, want)
	}
}
