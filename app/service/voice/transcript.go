package voice

import "strings"

// transcript composes the input buffer from closed phrases and the open one.
type transcript struct {
	finals  []string
	partial string
}

func (t *transcript) update(text string, final bool) string {
	if final {
		if text != "" {
			t.finals = append(t.finals, text)
		}
		t.partial = ""
	} else {
		t.partial = text
	}

	return t.String()
}

func (t *transcript) String() string {
	parts := t.finals
	if t.partial != "" {
		parts = append(parts[:len(parts):len(parts)], t.partial)
	}

	return strings.Join(parts, " ")
}
