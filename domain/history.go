package domain

// ChatHistory is an ordered log of utterances bounded by a retention window.
// A window of 0 keeps everything. ChatHistory is not safe for concurrent use;
// its owner serializes access.
type ChatHistory struct {
	window int
	items  []Utterance
}

func NewChatHistory(window int) *ChatHistory {
	if window < 0 {
		window = 0
	}
	return &ChatHistory{window: window}
}

// Append adds the utterance and evicts the oldest entries beyond the window.
func (h *ChatHistory) Append(u Utterance) {
	h.items = append(h.items, u)
	if h.window > 0 && len(h.items) > h.window {
		kept := make([]Utterance, h.window)
		copy(kept, h.items[len(h.items)-h.window:])
		h.items = kept
	}
}

// Items returns a copy of the retained utterances, oldest first.
func (h *ChatHistory) Items() []Utterance {
	out := make([]Utterance, len(h.items))
	copy(out, h.items)
	return out
}

func (h *ChatHistory) Len() int {
	return len(h.items)
}
