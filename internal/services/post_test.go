package services

import "testing"

func TestRenderBody(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single paragraph", "hello world", "<p>hello world</p>"},
		{"escapes markup", "<script>alert(1)</script>", "<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>"},
		{"paragraphs on blank lines", "one\n\ntwo", "<p>one</p><p>two</p>"},
		{"line breaks inside a paragraph", "one\ntwo", "<p>one<br>two</p>"},
		{"windows line endings", "one\r\n\r\ntwo", "<p>one</p><p>two</p>"},
		{"whitespace only", "  \n\n\t", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderBody(tc.in); got != tc.want {
				t.Errorf("RenderBody(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
