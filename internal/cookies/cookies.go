// Package cookies loads a Netscape-format cookies.txt into an http.CookieJar.
package cookies

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"tgcdl/internal/errs"

	"golang.org/x/net/publicsuffix"
)

// Field positions of a Netscape cookie line.
const (
	fieldDomain = iota
	fieldHostOnly
	fieldPath
	fieldSecure
	fieldExpiration
	fieldName
	fieldValue
	fieldCount
)

const httpOnlyPrefix = "#httponly_"

// Load reads a cookies.txt exported from a signed-in browser session and
// returns a jar ready to attach to an http.Client. A missing file is
// errs.ErrMissingCookies; unparsable lines are skipped, matching how
// browsers treat the format.
func Load(path string) (http.CookieJar, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrMissingCookies, path)
		}

		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer file.Close()

	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}

	byDomain := make(map[string][]*http.Cookie)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cookie, domain, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		byDomain[domain] = append(byDomain[domain], cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	for domain, cookies := range byDomain {
		u, err := url.Parse(fmt.Sprintf("https://%s", strings.TrimPrefix(domain, ".")))
		if err != nil {
			continue
		}

		jar.SetCookies(u, cookies)
	}

	return jar, nil
}

// parseLine parses one tab-separated Netscape cookie entry. Returns ok=false
// for comments, blank lines and entries with the wrong field count.
func parseLine(line string) (*http.Cookie, string, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != fieldCount {
		return nil, "", false
	}

	domain := strings.ToLower(parts[fieldDomain])

	httpOnly := false
	if strings.HasPrefix(domain, httpOnlyPrefix) {
		httpOnly = true
		domain = strings.TrimPrefix(domain, httpOnlyPrefix)
	} else if strings.HasPrefix(domain, "#") {
		// Plain comment line.
		return nil, "", false
	}

	// Quoted JSON values are not valid per the RFC; skip them the way other
	// cookie importers do.
	if strings.Contains(parts[fieldValue], `"`) {
		return nil, "", false
	}

	cookie := &http.Cookie{
		Domain:   domain,
		Path:     parts[fieldPath],
		Secure:   strings.EqualFold(parts[fieldSecure], "true"),
		Name:     parts[fieldName],
		Value:    parts[fieldValue],
		HttpOnly: httpOnly,
	}

	// Expiration 0 marks a session cookie; a zero time keeps the jar from
	// treating it as already expired.
	if expire, _ := strconv.ParseInt(parts[fieldExpiration], 10, 64); expire > 0 {
		cookie.Expires = time.Unix(expire, 0)
	}

	return cookie, domain, true
}
