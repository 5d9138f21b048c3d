package vfspath

import "testing"

func TestSegments(t *testing.T) {
	for _, test := range []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/", nil},
		{"a", []string{"a"}},
		{"a/b/c", []string{"a", "b", "c"}},
		{"/a/b/", []string{"a", "b"}},
		{`a\b/c`, []string{"a", "b", "c"}},
		{"a//b", []string{"a", "b"}},
	} {
		got := Segments(test.in)
		if !equal(got, test.want) {
			t.Errorf("Segments(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClean(t *testing.T) {
	for _, test := range []struct {
		in           string
		want         string
		wantEscaped  bool
	}{
		{"a/b/c", "a/b/c", false},
		{"a/./b", "a/b", false},
		{"a/b/../c", "a/c", false},
		{"../a", "..", true},
		{"a/../../b", "../b", true},
		{"", "", false},
	} {
		got, escaped := Clean(test.in)
		if got != test.want || escaped != test.wantEscaped {
			t.Errorf("Clean(%q) = (%q, %v), want (%q, %v)", test.in, got, escaped, test.want, test.wantEscaped)
		}
	}
}

func TestHasSpecialSegments(t *testing.T) {
	if HasSpecialSegments("a/b/c") {
		t.Error("expected no special segments")
	}
	if !HasSpecialSegments("a/../c") {
		t.Error("expected special segment detected")
	}
	if !HasSpecialSegments("./a") {
		t.Error("expected special segment detected")
	}
}

func TestTrimPrefix(t *testing.T) {
	for _, test := range []struct {
		path, prefix string
		wantRest     string
		wantOK       bool
	}{
		{"/data/a.txt", "/data", "a.txt", true},
		{"/database/a.txt", "/data", "", false},
		{"/data", "/data", "", true},
		{"/data/x/y", "/data/x", "y", true},
	} {
		rest, ok := TrimPrefix(test.path, test.prefix)
		if ok != test.wantOK || rest != test.wantRest {
			t.Errorf("TrimPrefix(%q, %q) = (%q, %v), want (%q, %v)", test.path, test.prefix, rest, ok, test.wantRest, test.wantOK)
		}
	}
}

func TestExt(t *testing.T) {
	for _, test := range []struct{ in, want string }{
		{"a/b/pkg.zip", ".zip"},
		{"a/b/pkg.ZIP", ".zip"},
		{"a/b/noext", ""},
		{"a/.hidden", ""},
		{"", ""},
	} {
		got := Ext(test.in)
		if got != test.want {
			t.Errorf("Ext(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestDirBase(t *testing.T) {
	if got := Dir("a/b/c"); got != "a/b" {
		t.Errorf("Dir = %q", got)
	}
	if got := Base("a/b/c"); got != "c" {
		t.Errorf("Base = %q", got)
	}
	if got := Dir("a"); got != "" {
		t.Errorf("Dir(single) = %q", got)
	}
}
