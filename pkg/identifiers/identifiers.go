package identifiers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"igcancel/pkg/storage"
)

// ProfilePrefix is the profile URL prefix recognised in exports
const ProfilePrefix = "https://www.instagram.com/"

// ErrNoExport is returned by Discover when the directory holds no export
var ErrNoExport = errors.New("no export file found")

// Dedupe removes repeated identifiers keeping the first occurrence
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UsernameFromURL returns the account name of a profile URL, or "" when
// href does not point at a profile.
func UsernameFromURL(href string) string {
	href = strings.TrimSpace(href)
	idx := strings.Index(href, ProfilePrefix)
	if idx < 0 {
		return ""
	}
	rest := href[idx+len(ProfilePrefix):]
	if cut := strings.IndexAny(rest, "?#"); cut >= 0 {
		rest = rest[:cut]
	}
	rest = strings.TrimPrefix(rest, "_u/")
	rest = strings.TrimRight(rest, "/")
	if rest == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	return rest
}

// FromHTML collects usernames from profile links in an HTML export
func FromHTML(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var ids []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if name := UsernameFromURL(attr.Val); name != "" {
					ids = append(ids, name)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return Dedupe(ids), nil
}

type exportEntry struct {
	Title          string `json:"title"`
	StringListData []struct {
		Href      string `json:"href"`
		Value     string `json:"value"`
		Timestamp int64  `json:"timestamp"`
	} `json:"string_list_data"`
}

// FromJSON reads the JSON data export. Both the keyed form
// {"relationships_follow_requests_sent": [...]} and a bare array are accepted.
func FromJSON(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var entries []exportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON export: %w", err)
		}
		raw, ok := keyed["relationships_follow_requests_sent"]
		if !ok {
			return nil, fmt.Errorf("JSON export has no relationships_follow_requests_sent key")
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse follow requests: %w", err)
		}
	}

	var ids []string
	for _, entry := range entries {
		for _, item := range entry.StringListData {
			name := strings.TrimSpace(item.Value)
			if name == "" {
				name = UsernameFromURL(item.Href)
			}
			if name == "" {
				name = strings.TrimSpace(entry.Title)
			}
			if name != "" {
				ids = append(ids, name)
			}
		}
	}
	return Dedupe(ids), nil
}

// FromText reads one identifier per line. Blank lines are skipped and a
// leading @ is dropped.
func FromText(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read list: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "@")
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	return Dedupe(ids), nil
}

// LoadFile parses path according to its extension: .html/.htm, .json,
// anything else as a text list.
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FromHTML(file)
	case ".json":
		return FromJSON(file)
	default:
		return FromText(file)
	}
}

// LoadList reads a text list written by storage.WriteLines, such as the
// failed-identifier file of an earlier run.
func LoadList(path string) ([]string, error) {
	lines, err := storage.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return Dedupe(lines), nil
}

// Discover returns the first HTML export in dir, falling back to the first
// JSON export. Files are considered in name order.
func Discover(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w in %s", ErrNoExport, dir)
		}
		return "", err
	}

	var htmlFiles, jsonFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".html", ".htm":
			htmlFiles = append(htmlFiles, name)
		case ".json":
			if strings.Contains(name, "follow") {
				jsonFiles = append(jsonFiles, name)
			}
		}
	}
	sort.Strings(htmlFiles)
	sort.Strings(jsonFiles)

	if len(htmlFiles) > 0 {
		return filepath.Join(dir, htmlFiles[0]), nil
	}
	if len(jsonFiles) > 0 {
		return filepath.Join(dir, jsonFiles[0]), nil
	}
	return "", fmt.Errorf("%w in %s", ErrNoExport, dir)
}
