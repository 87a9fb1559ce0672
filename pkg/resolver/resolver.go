// Package resolver adapts the external yt-dlp tool into the playable-source
// lookups the playback engine needs: title metadata, search-by-keyword,
// direct stream URLs with their required HTTP headers, and bounded playlist
// expansion.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/melodia-bot/melodia/pkg/player"
)

// ErrNoPlayableURL means yt-dlp returned no usable stream URL for a query.
var ErrNoPlayableURL = errors.New("resolver: no playable url")

// audioFormat prefers containerless audio-only streams; best is the
// last-resort fallback for sources without split formats.
const audioFormat = "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio/best"

// batch limit domain for playlist expansion and multi-result search.
const (
	minBatchLimit = 1
	maxBatchLimit = 50
)

// Entry is one result of a batch resolution: a canonical page URL plus its
// display title.
type Entry struct {
	URL   string
	Title string
}

// Client issues yt-dlp invocations. The zero value is usable.
type Client struct {
	// CookiesFile, when set, is passed to yt-dlp for gated sources.
	CookiesFile string

	// ForceIPv4 makes all resolver traffic use IPv4.
	ForceIPv4 bool
}

func (c *Client) command() *ytdlp.Command {
	return ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
}

// commonArgs are the raw flags shared by every invocation.
func (c *Client) commonArgs() []string {
	args := []string{
		"--no-check-certificates",
		"--socket-timeout", "30",
		"--retries", "3",
		"--extractor-args", "youtube:player_client=android,web",
	}
	if c.CookiesFile != "" {
		args = append(args, "--cookies", c.CookiesFile)
	}
	if c.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	return args
}

// ResolveTitle fetches the display title for a query or URL. It is
// best-effort: on any failure the raw query comes back unchanged, so
// enqueue-time metadata lookup can never fail a command.
func (c *Client) ResolveTitle(ctx context.Context, query string) string {
	target := query
	if !IsURL(query) {
		target = "ytsearch1:" + query
	}

	res, err := c.command().
		FlatPlaylist().
		Print("%(title)s").
		Run(ctx, append(c.commonArgs(), "--skip-download", target)...)
	if err != nil {
		log.Printf("resolver: title lookup failed for %q: %v", query, err)
		return query
	}

	title := firstLine(res.Stdout)
	if title == "" || title == "NA" {
		return query
	}
	return title
}

// ResolveFirstMatch maps a query to a canonical page URL. Well-formed URLs
// pass through unchanged; anything else is searched with a single-result
// keyword search. An empty URL with nil error means no match.
func (c *Client) ResolveFirstMatch(ctx context.Context, query string) (string, error) {
	if IsURL(query) {
		return query, nil
	}

	res, err := c.command().
		FlatPlaylist().
		Print("%(webpage_url)s").
		Run(ctx, append(c.commonArgs(), "--skip-download", "ytsearch1:"+query)...)
	if err != nil {
		return "", fmt.Errorf("resolver: search failed for %q: %w", query, err)
	}

	return parseFirstMatch(res.Stdout), nil
}

// parseFirstMatch maps yt-dlp's search output to a canonical page URL; an
// empty result or the NA placeholder means no match.
func parseFirstMatch(stdout string) string {
	url := firstLine(stdout)
	if url == "NA" {
		return ""
	}
	return url
}

// ResolveDirectSource asks yt-dlp for the best audio-only stream of a page
// URL (or keyword query): the direct media URL, the title, and the HTTP
// headers required to fetch it. Direct URLs are signed and short-lived, so
// this runs immediately before playback, never at enqueue time.
func (c *Client) ResolveDirectSource(ctx context.Context, query string) (*player.Source, error) {
	target := query
	if !IsURL(query) {
		target = "ytsearch1:" + query
	}

	args := append(c.commonArgs(), "-f", audioFormat, "--skip-download", target)
	res, err := c.command().
		NoPlaylist().
		Print("%(url)s\t%(title)s\t%(http_headers)j").
		Run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoPlayableURL, query, err)
	}

	src, err := parseDirectSource(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoPlayableURL, query, err)
	}
	return src, nil
}

// ResolveBatch expands a playlist URL (or multi-result keyword search) into
// up to limit entries. The limit is clamped to [1, 50]. Partial or total
// failure yields an empty list, never an error.
func (c *Client) ResolveBatch(ctx context.Context, query string, limit int) []Entry {
	limit = clampLimit(limit)

	target := query
	if !IsURL(query) {
		target = fmt.Sprintf("ytsearch%d:%s", limit, query)
	}

	args := append(c.commonArgs(), "--skip-download", target)
	res, err := c.command().
		FlatPlaylist().
		Print("%(url)s\t%(title)s").
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, args...)
	if err != nil {
		log.Printf("resolver: batch resolution failed for %q: %v", query, err)
		return nil
	}

	return parseBatch(res.Stdout, limit)
}

// parseDirectSource parses one "url\ttitle\tjson-headers" output line.
func parseDirectSource(stdout string) (*player.Source, error) {
	line := firstLine(stdout)
	if line == "" {
		return nil, errors.New("empty output")
	}

	parts := strings.SplitN(line, "\t", 3)
	if parts[0] == "" || parts[0] == "NA" {
		return nil, errors.New("no stream url in output")
	}

	src := &player.Source{URL: parts[0]}
	if len(parts) > 1 && parts[1] != "NA" {
		src.Title = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" && parts[2] != "NA" {
		headers := map[string]string{}
		if err := json.Unmarshal([]byte(parts[2]), &headers); err == nil {
			src.Headers = headers
		} else {
			log.Printf("resolver: unparseable http_headers field: %v", err)
		}
	}
	return src, nil
}

// parseBatch parses "url\ttitle" lines, dropping malformed or placeholder
// entries and honoring the limit.
func parseBatch(stdout string, limit int) []Entry {
	var out []Entry
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) < 2 {
			continue
		}
		url, title := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if url == "" || url == "NA" || title == "" || title == "NA" {
			continue
		}
		out = append(out, Entry{URL: url, Title: title})
		if len(out) == limit {
			break
		}
	}
	return out
}

func clampLimit(limit int) int {
	if limit < minBatchLimit {
		return minBatchLimit
	}
	if limit > maxBatchLimit {
		return maxBatchLimit
	}
	return limit
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// IsURL reports whether a string looks like a web URL rather than a
// keyword query.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}
