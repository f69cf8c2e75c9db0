// internal/workers/conversation/match-utterance/models.go
package matchutterance

// Utterance pairs a lower-cased pattern with its canned response.
type Utterance struct {
	Pattern  string
	Response string
}

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	Response string `json:"response"`
	Pattern  string `json:"pattern,omitempty"`
	Matched  bool   `json:"matched"`
}
