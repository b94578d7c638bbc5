// Package site holds the selector and marker profile for the target
// dashboard. The DOM is unversioned and changes without notice, so everything
// the browser layer and the extraction heuristics match against lives here
// and can be overridden from a YAML file without a rebuild.
package site

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes how to find things on the dashboard.
type Profile struct {
	DashboardHost    string `yaml:"dashboardHost"`
	LoginURLFragment string `yaml:"loginUrlFragment"`
	LandmarkSelector string `yaml:"landmarkSelector"` // visible only after login
	InboxPath        string `yaml:"inboxPath"`

	ListItemSelector    string `yaml:"listItemSelector"`
	SearchInputSelector string `yaml:"searchInputSelector"`
	ClientLinkSelector  string `yaml:"clientLinkSelector"`
	TimeLabelSelector   string `yaml:"timeLabelSelector"`
	SenderLabelSelector string `yaml:"senderLabelSelector"`

	LeftMarkerClass  string `yaml:"leftMarkerClass"`
	RightMarkerClass string `yaml:"rightMarkerClass"`
	ImageMarkerClass string `yaml:"imageMarkerClass"`

	ImageURLSubstrings []string `yaml:"imageUrlSubstrings"`

	MinTextLength int `yaml:"minTextLength"` // shorter list items are filler fragments
	MaxTextLength int `yaml:"maxTextLength"` // stored text is truncated to this
}

// Default returns the profile for the Clientbook dashboard as currently
// observed.
func Default() Profile {
	return Profile{
		DashboardHost:    "dashboard.clientbook.com",
		LoginURLFragment: "/login",
		LandmarkSelector: `[href*="/Messaging/inbox"]`,
		InboxPath:        "/Messaging/inbox",

		ListItemSelector:    `li[id*="chatList"]`,
		SearchInputSelector: `input[placeholder*="Search"]`,
		ClientLinkSelector:  `a[href*="/Clients?client="]`,
		TimeLabelSelector:   `.chatDate, .singleMessageWrapper span`,
		SenderLabelSelector: `.senderName`,

		LeftMarkerClass:  "messageLeft",
		RightMarkerClass: "messageRight",
		ImageMarkerClass: "photoFit",

		ImageURLSubstrings: []string{"amazonaws.com"},

		MinTextLength: 5,
		MaxTextLength: 500,
	}
}

// Load reads a YAML profile from path, layered over Default so a partial file
// only overrides the keys it names. An empty path returns Default.
func Load(path string, logger *slog.Logger) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read site profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse site profile %s: %w", path, err)
	}

	logger.Info("loaded site profile", "path", path)
	return p, nil
}
