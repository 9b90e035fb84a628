package auth

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingCookie is returned when a pasted cookie header lacks sessionid
var ErrMissingCookie = errors.New("sessionid cookie not found")

// Cookies are the values igcancel needs from a browser Cookie header
type Cookies struct {
	SessionID string
	CSRFToken string
	Username  string
}

// ParseCookieHeader extracts sessionid, csrftoken and ds_user from a Cookie
// header as copied from the browser's network tab. A leading "Cookie:" is
// accepted.
func ParseCookieHeader(header string) (*Cookies, error) {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "cookie:") {
		header = header[7:]
	}

	cookies := &Cookies{}
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(name) {
		case "sessionid":
			cookies.SessionID = value
		case "csrftoken":
			cookies.CSRFToken = value
		case "ds_user":
			cookies.Username = value
		}
	}

	if cookies.SessionID == "" {
		return nil, ErrMissingCookie
	}
	return cookies, nil
}

// ShowCookieExtractionGuide writes step-by-step instructions for copying the
// session cookies out of a logged-in browser.
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)
	lines := []string{
		rule,
		"INSTAGRAM COOKIE EXTRACTION GUIDE",
		rule,
		"",
		"igcancel withdraws follow requests with your existing browser session.",
		"It never asks for your password. Copy two cookies from your browser:",
		"",
		"STEP 1: Open https://www.instagram.com and log in",
		"",
		"STEP 2: Open Developer Tools",
		"   Chrome/Edge/Brave/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)",
		"   Safari: enable the Develop menu in Settings, then Cmd+Option+I",
		"",
		"STEP 3: Find the cookies",
		"   Application (Chrome) or Storage (Firefox) tab > Cookies > https://www.instagram.com",
		"   or: Network tab > any instagram.com request > Request Headers > Cookie",
		"",
		"STEP 4: Copy these values",
		"   sessionid   long string containing %3A, e.g. 12345678%3Aabcdef...",
		"   csrftoken   32 characters, e.g. YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy",
		"",
		"   You can also paste the whole Cookie header; igcancel picks out what it needs.",
		"",
		"SECURITY",
		"   These cookies give full access to your account. Never share them.",
		"   igcancel keeps them in the system keychain or an encrypted file.",
		rule,
		"",
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

// ShowQuickExtractGuide writes a one-line reminder for experienced users
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "\nQuick guide: F12 > Application > Cookies > instagram.com, copy sessionid and csrftoken")
	fmt.Fprintln(w, "   (or paste the whole Cookie header). Type 'help' for detailed instructions.")
}
