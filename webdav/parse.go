package webdav

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mediafold/mediafold"
)

// autoindexTimeFormat is the modification time format on nginx autoindex
// pages, e.g. "19-Aug-2026 10:33".
const autoindexTimeFormat = "02-Jan-2006 15:04"

// parseAutoindex extracts directory entries from an nginx autoindex HTML
// page. The page body is a <pre> block of one line per entry: a link with
// the name, then the modification time, then the size (or "-" for
// directories). The parent link "../" is skipped.
func parseAutoindex(r io.Reader, dirKey string) ([]mediafold.Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	pre := findElement(doc, "pre")
	if pre == nil {
		return nil, nil
	}

	var entries []mediafold.Entry
	for _, line := range strings.Split(nodeText(pre), "\n") {
		entry, ok := parseAutoindexLine(line, dirKey)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func parseAutoindexLine(line string, dirKey string) (mediafold.Entry, bool) {
	line = strings.TrimRight(line, " \r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "../") {
		return mediafold.Entry{}, false
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return mediafold.Entry{}, false
	}

	// The name may contain spaces; everything before the trailing
	// "date time size" triple belongs to it.
	sizeText := fields[len(fields)-1]
	timeText := fields[len(fields)-2]
	dateText := fields[len(fields)-3]

	modified, err := time.Parse(autoindexTimeFormat, dateText+" "+timeText)
	if err != nil {
		return mediafold.Entry{}, false
	}

	nameEnd := strings.LastIndex(line, dateText)
	if nameEnd < 0 {
		return mediafold.Entry{}, false
	}
	rawName := strings.TrimRight(line[:nameEnd], " ")
	if rawName == "" {
		return mediafold.Entry{}, false
	}

	isDir := strings.HasSuffix(rawName, "/")
	name := strings.TrimSuffix(rawName, "/")

	key := name
	if dirKey != "" {
		key = dirKey + "/" + name
	}

	var size int64
	if !isDir {
		size = parseAutoindexSize(sizeText)
	}

	return mediafold.Entry{
		Key:      key,
		Name:     name,
		IsDir:    isDir,
		Size:     size,
		Modified: modified,
	}, true
}

// parseAutoindexSize converts an autoindex size column to bytes. Pages are
// expected to be configured with exact sizes; "-" marks a directory.
func parseAutoindexSize(s string) int64 {
	if s == "" || s == "-" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
