package domain

// Node is one rendered child of the message container, flattened to the
// attributes the extraction heuristics need. It is produced by the browser
// layer and consumed by the pure extractor, so parsing rules never touch a
// live page.
type Node struct {
	Text        string      `json:"text"`
	Classes     []string    `json:"classes"`
	ListItems   []string    `json:"listItems"` // trimmed text of <li> descendants
	Images      []NodeImage `json:"images"`
	TimeLabel   string      `json:"timeLabel"`   // nearest timestamp label inside the node
	SenderLabel string      `json:"senderLabel"` // text of the sender-name span, if present
}

type NodeImage struct {
	URL     string   `json:"url"`
	Classes []string `json:"classes"`
}

// Snapshot is one conversation view serialized out of the page.
type Snapshot struct {
	ClientID       string `json:"clientId"`
	ClientName     string `json:"clientName"`
	ContainerFound bool   `json:"containerFound"`
	Children       []Node `json:"children"`
	DivsChecked    int    `json:"divsChecked"` // populated when the container was not found
}

// Debug describes an extraction pass for diagnostics; extraction misses are
// reported here rather than as errors.
type Debug struct {
	ContainerFound bool
	ChildCount     int
}
