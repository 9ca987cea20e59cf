package deploy

import "testing"

func TestResolvePlaceholders(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]string
		want string
	}{
		{
			name: "every occurrence",
			text: "a: __((x))__\nb: __((x))__-__((y))__",
			vars: map[string]string{"x": "1", "y": "2"},
			want: "a: 1\nb: 1-2",
		},
		{
			name: "unbound left untouched",
			text: "a: __((x))__ b: __((missing))__",
			vars: map[string]string{"x": "1"},
			want: "a: 1 b: __((missing))__",
		},
		{
			name: "empty value",
			text: "image: __((registry))__cloudprivate/app:v1",
			vars: map[string]string{"registry": ""},
			want: "image: cloudprivate/app:v1",
		},
		{
			name: "values are not rescanned",
			text: "__((a))__",
			vars: map[string]string{"a": "__((b))__", "b": "no"},
			want: "__((b))__",
		},
		{
			name: "no vars",
			text: "__((a))__",
			want: "__((a))__",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePlaceholders(tt.text, tt.vars); got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePlaceholdersIdempotentWithoutMarkers(t *testing.T) {
	text := "kind: Deployment\nmetadata:\n  name: web\n"
	vars := map[string]string{"x": "1"}
	once := ResolvePlaceholders(text, vars)
	if once != text {
		t.Fatalf("text without markers changed: %q", once)
	}
	if twice := ResolvePlaceholders(once, vars); twice != once {
		t.Fatalf("second pass changed text: %q", twice)
	}
}
