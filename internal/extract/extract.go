// Package extract turns a rendered-node snapshot of an open conversation into
// structured message records. It is pure: the browser layer serializes the
// DOM into domain.Snapshot, and everything heuristic happens here, against
// plain data, where it can be unit tested.
package extract

import (
	"regexp"
	"strings"

	"chatvault/internal/domain"
	"chatvault/internal/site"
)

// dateHeaderRe matches a date-header node exactly, e.g. "December 06, 2025".
// The source always zero-pads the day.
var dateHeaderRe = regexp.MustCompile(`^[A-Za-z]+ \d{2}, \d{4}$`)

// IsDateHeader reports whether trimmed node text is a date-header breakpoint.
func IsDateHeader(text string) bool {
	return dateHeaderRe.MatchString(strings.TrimSpace(text))
}

type breakpoint struct {
	index int
	date  string
}

// Messages extracts records from a conversation snapshot.
//
// The source renders newest-first, with each day's date header following that
// day's messages in DOM order. A node's effective date is therefore the date
// of the nearest breakpoint at a GREATER index; nodes after the last
// breakpoint get an empty date.
//
// With minimal set, extraction stops after the first record; name-only passes
// do not need full history.
func Messages(snap *domain.Snapshot, p site.Profile, minimal bool) ([]domain.Record, domain.Debug) {
	dbg := domain.Debug{}
	if snap == nil || !snap.ContainerFound {
		return nil, dbg
	}
	dbg.ContainerFound = true
	dbg.ChildCount = len(snap.Children)

	// First pass: locate date breakpoints.
	var breakpoints []breakpoint
	for i, n := range snap.Children {
		if t := strings.TrimSpace(n.Text); dateHeaderRe.MatchString(t) {
			breakpoints = append(breakpoints, breakpoint{index: i, date: t})
		}
	}

	// Second pass: emit records, assigning dates backward.
	var records []domain.Record
	for i, n := range snap.Children {
		if IsDateHeader(n.Text) {
			continue
		}

		date := ""
		for _, bp := range breakpoints {
			if bp.index > i {
				date = bp.date
				break
			}
		}

		meta := domain.Meta{
			Date:       date,
			Time:       strings.TrimSpace(n.TimeLabel),
			Alignment:  alignment(n, p),
			SenderName: strings.TrimSpace(n.SenderLabel),
		}

		for _, item := range n.ListItems {
			text := strings.TrimSpace(item)
			if len(text) <= p.MinTextLength {
				continue // control/filler fragment
			}
			records = append(records, domain.TextMessage{Meta: meta, Text: truncate(text, p.MaxTextLength)})
			if minimal {
				return records, dbg
			}
		}

		if url := imageURL(n, p); url != "" {
			records = append(records, domain.ImageMessage{Meta: meta, URL: url})
			if minimal {
				return records, dbg
			}
		}
	}

	return records, dbg
}

// alignment resolves the structural marker of a node. Left wins when a node
// somehow carries both markers, because only left-aligned nodes have a sender
// label worth keeping.
func alignment(n domain.Node, p site.Profile) domain.Alignment {
	if hasClass(n.Classes, p.LeftMarkerClass) {
		return domain.AlignLeft
	}
	if hasClass(n.Classes, p.RightMarkerClass) {
		return domain.AlignRight
	}
	return domain.AlignNone
}

// imageURL returns the source URL of the first image in the node that looks
// like a hosted attachment: either it carries the image marker class or its
// URL matches a known hosting substring.
func imageURL(n domain.Node, p site.Profile) string {
	for _, img := range n.Images {
		if img.URL == "" {
			continue
		}
		if hasClass(img.Classes, p.ImageMarkerClass) {
			return img.URL
		}
		for _, sub := range p.ImageURLSubstrings {
			if strings.Contains(img.URL, sub) {
				return img.URL
			}
		}
	}
	return ""
}

func hasClass(classes []string, want string) bool {
	if want == "" {
		return false
	}
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

// truncate cuts s to at most max characters, never splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
