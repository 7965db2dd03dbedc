package cookies_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"tgcdl/internal/cookies"
	"tgcdl/internal/errs"
)

const cookiesTxt = `# Netscape HTTP Cookie File
# This file is generated by a browser. Do not edit.

.thegreatcoursesplus.com	TRUE	/	TRUE	1924992000	session	abc123
#HttpOnly_.thegreatcoursesplus.com	TRUE	/	TRUE	1924992000	auth	xyz789
.thegreatcoursesplus.com	TRUE	/	TRUE	0	csrf	tok42
.thegreatcoursesplus.com	TRUE	/	TRUE	1924992000	quoted	{"json":"value"}
malformed line without tabs
`

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write cookie file: %v", err)
	}

	return path
}

func TestLoad(t *testing.T) {
	jar, err := cookies.Load(writeCookieFile(t, cookiesTxt))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	u, _ := url.Parse("https://www.thegreatcoursesplus.com/")

	got := jar.Cookies(u)

	names := make(map[string]string, len(got))
	for _, c := range got {
		names[c.Name] = c.Value
	}

	if names["session"] != "abc123" {
		t.Errorf("session cookie = %q, want %q", names["session"], "abc123")
	}

	if names["auth"] != "xyz789" {
		t.Errorf("httponly cookie = %q, want %q", names["auth"], "xyz789")
	}

	if names["csrf"] != "tok42" {
		t.Errorf("session-scoped cookie = %q, want %q", names["csrf"], "tok42")
	}

	if _, ok := names["quoted"]; ok {
		t.Error("quoted value should be skipped")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := cookies.Load(filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, errs.ErrMissingCookies) {
		t.Errorf("Load error = %v, want ErrMissingCookies", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	jar, err := cookies.Load(writeCookieFile(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	u, _ := url.Parse("https://www.thegreatcoursesplus.com/")
	if got := jar.Cookies(u); len(got) != 0 {
		t.Errorf("Cookies = %v, want none", got)
	}
}
