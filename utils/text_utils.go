package utils

import (
	"strings"
	"unicode"
)

const (
	// Reuters appends this to every link in their RSS feeds.
	feedTrackingMarker = "?feedType=RSS"
	// Reuters descriptions carry broken HTML after the real text.
	descriptionMarkupMarker = "<div class="
)

var smartQuoteReplacer = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
)

// CleanUrl produces the deduplication key of a url. It drops scheme and
// "www." prefixes, ascii-fies smart quotes, removes whitespace and cuts the
// feed tracking parameter. Applying it to its own output is a no-op.
func CleanUrl(url string) string {
	for {
		cleaned := cleanUrlOnce(url)
		if cleaned == url {
			return cleaned
		}
		url = cleaned
	}
}

func cleanUrlOnce(url string) string {
	url = strings.Replace(url, "https://", "", -1)
	url = strings.Replace(url, "http://", "", -1)
	url = strings.Replace(url, "www.", "", -1)
	url = smartQuoteReplacer.Replace(url)
	url = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, url)
	if idx := strings.Index(url, feedTrackingMarker); idx >= 0 {
		url = url[:idx]
	}
	return url
}

// CleanTitle ascii-fies smart quotes and drops every other non-ascii rune.
func CleanTitle(title string) string {
	title = smartQuoteReplacer.Replace(title)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, title)
}

// CleanDescription cuts everything from the first embedded markup marker on.
func CleanDescription(description string) string {
	if idx := strings.Index(description, descriptionMarkupMarker); idx >= 0 {
		return description[:idx]
	}
	return description
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RuneLength is the length used by every length limit in the bot.
func RuneLength(s string) int {
	return len([]rune(s))
}

// NaturalJoin joins values for humans:
// NaturalJoin([]string{"pierre", "paul", "jacques"}, "and") is
// "pierre, paul and jacques".
func NaturalJoin(values []string, conjunction string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	return strings.Join(values[:len(values)-1], ", ") + " " + conjunction + " " + values[len(values)-1]
}
