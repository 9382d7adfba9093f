// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// ClickEvent is the "clickEvent" field of a chat component.
type ClickEvent struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

// HoverEvent is the "hoverEvent" field of a chat component. Value is kept
// as a raw string rather than a nested Chat; every hover action this proxy
// ever emits (show_text) is plain text.
type HoverEvent struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

// ScoreRef is the "score" content variant: {name, objective, [value]}.
type ScoreRef struct {
	Name      string `json:"name"`
	Objective string `json:"objective"`
	Value     string `json:"value,omitempty"`
}

// Chat is a chat component tree (spec §3): either a raw string, an array
// (first element is the parent style, later elements inherit it), or an
// object with style flags, a color, click/hover events, nested Extra, and
// exactly one content variant (text, translate+with, score, keybind, or
// selector).
type Chat struct {
	isRaw bool
	raw   string

	Text      string     `json:"-"`
	Translate string     `json:"-"`
	With      []Chat     `json:"-"`
	Score     *ScoreRef  `json:"-"`
	Keybind   string     `json:"-"`
	Selector  string     `json:"-"`

	Bold          *bool       `json:"-"`
	Italic        *bool       `json:"-"`
	Underlined    *bool       `json:"-"`
	Strikethrough *bool       `json:"-"`
	Obfuscated    *bool       `json:"-"`
	Color         string      `json:"-"`
	ClickEvent    *ClickEvent `json:"-"`
	HoverEvent    *HoverEvent `json:"-"`
	Extra         []Chat      `json:"-"`
}

// RawText builds a Chat that serializes as a bare JSON string.
func RawText(s string) Chat { return Chat{isRaw: true, raw: s} }

// Literal builds an object-form Chat with a plain text content variant.
func Literal(s string) Chat { return Chat{Text: s} }

// IsRaw reports whether this node decoded from (or was built as) a bare
// JSON string.
func (c Chat) IsRaw() bool { return c.isRaw }

// PlainString best-effort flattens the tree into human-readable text,
// ignoring style, used for logging and for rendering into legacy chat
// packets where only a string is needed.
func (c Chat) PlainString() string {
	var b strings.Builder
	c.writePlain(&b)
	return b.String()
}

func (c Chat) writePlain(b *strings.Builder) {
	switch {
	case c.isRaw:
		b.WriteString(c.raw)
	case c.Text != "":
		b.WriteString(c.Text)
	case c.Translate != "":
		b.WriteString(c.Translate)
	case c.Score != nil:
		b.WriteString(c.Score.Value)
	case c.Keybind != "":
		b.WriteString(c.Keybind)
	case c.Selector != "":
		b.WriteString(c.Selector)
	}
	for _, e := range c.Extra {
		e.writePlain(b)
	}
}

// jsonShadow is the wire shape of the object form; Chat marshals/unmarshals
// through it to keep the tagged-union logic in one place.
type jsonShadow struct {
	Text          string      `json:"text,omitempty"`
	Translate     string      `json:"translate,omitempty"`
	With          []Chat      `json:"with,omitempty"`
	Score         *ScoreRef   `json:"score,omitempty"`
	Keybind       string      `json:"keybind,omitempty"`
	Selector      string      `json:"selector,omitempty"`
	Bold          *bool       `json:"bold,omitempty"`
	Italic        *bool       `json:"italic,omitempty"`
	Underlined    *bool       `json:"underlined,omitempty"`
	Strikethrough *bool       `json:"strikethrough,omitempty"`
	Obfuscated    *bool       `json:"obfuscated,omitempty"`
	Color         string      `json:"color,omitempty"`
	ClickEvent    *ClickEvent `json:"clickEvent,omitempty"`
	HoverEvent    *HoverEvent `json:"hoverEvent,omitempty"`
	Extra         []Chat      `json:"extra,omitempty"`
}

func (c Chat) toShadow() jsonShadow {
	return jsonShadow{
		Text: c.Text, Translate: c.Translate, With: c.With, Score: c.Score,
		Keybind: c.Keybind, Selector: c.Selector,
		Bold: c.Bold, Italic: c.Italic, Underlined: c.Underlined,
		Strikethrough: c.Strikethrough, Obfuscated: c.Obfuscated,
		Color: c.Color, ClickEvent: c.ClickEvent, HoverEvent: c.HoverEvent,
		Extra: c.Extra,
	}
}

func (s jsonShadow) toChat() Chat {
	return Chat{
		Text: s.Text, Translate: s.Translate, With: s.With, Score: s.Score,
		Keybind: s.Keybind, Selector: s.Selector,
		Bold: s.Bold, Italic: s.Italic, Underlined: s.Underlined,
		Strikethrough: s.Strikethrough, Obfuscated: s.Obfuscated,
		Color: s.Color, ClickEvent: s.ClickEvent, HoverEvent: s.HoverEvent,
		Extra: s.Extra,
	}
}

// MarshalJSON implements the tagged union: raw string, or object form.
// (The array form is only ever read, never written — this proxy always
// emits the equivalent object form, which round-trips identically.)
func (c Chat) MarshalJSON() ([]byte, error) {
	if c.isRaw {
		return json.Marshal(c.raw)
	}
	return json.Marshal(c.toShadow())
}

// UnmarshalJSON implements the tagged union described in spec §3: a raw
// string, an array (first element is the parent style, later elements
// inherit it and collapse into the parent's Extra), or an object.
func (c *Chat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Malformed("empty chat JSON")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Malformed("invalid chat string: %v", err)
		}
		*c = RawText(s)
		return nil
	case '[':
		var arr []Chat
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return Malformed("invalid chat array: %v", err)
		}
		if len(arr) == 0 {
			// Empty arrays collapse to the raw empty string (spec §3).
			*c = RawText("")
			return nil
		}
		parent := arr[0]
		parent.Extra = append(append([]Chat{}, parent.Extra...), arr[1:]...)
		if len(parent.Extra) == 0 {
			parent.Extra = nil
		}
		*c = parent
		return nil
	case '{':
		var shadow jsonShadow
		if err := json.Unmarshal(trimmed, &shadow); err != nil {
			return Malformed("invalid chat object: %v", err)
		}
		result := shadow.toChat()
		if result.Extra != nil && len(result.Extra) == 0 {
			result.Extra = nil
		}
		*c = result
		return nil
	default:
		return Malformed("chat JSON must be a string, array, or object")
	}
}

// applyFixups implements the version fix-ups in spec §3, applied once on
// encode and irreversible.
func applyFixups(c Chat, v Version) Chat {
	if c.isRaw {
		return c
	}
	if v.AtLeast(V1_12) && c.HoverEvent != nil && c.HoverEvent.Action == "show_achievement" {
		he := *c.HoverEvent
		he.Action = "show_text"
		c.HoverEvent = &he
	}
	if v > V1_8_9 && c.ClickEvent != nil && c.ClickEvent.Action == "twitch_user_info" {
		ce := *c.ClickEvent
		ce.Value = "https://twitch.tv/" + ce.Value
		ce.Action = "open_url"
		c.ClickEvent = &ce
	}
	if !v.AtLeast(V1_16) && strings.HasPrefix(c.Color, "#") {
		c.Color = "reset"
	}
	if len(c.Extra) == 0 {
		if c.Text == "" && c.Translate == "" && c.Score == nil && c.Keybind == "" && c.Selector == "" {
			return RawText("")
		}
		c.Extra = nil
	} else {
		fixed := make([]Chat, len(c.Extra))
		for i, e := range c.Extra {
			fixed[i] = applyFixups(e, v)
		}
		c.Extra = fixed
	}
	return c
}

// DecodeChat reads a length-capped string<262144> and parses it as JSON
// (spec §4.1).
func DecodeChat(r io.Reader, v Version) (Chat, error) {
	s, err := ReadString(r, CapChat)
	if err != nil {
		return Chat{}, err
	}
	var c Chat
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		if _, ok := err.(*MalformedError); ok {
			return Chat{}, err
		}
		return Chat{}, Malformed("invalid chat JSON: %v", err)
	}
	return c, nil
}

// EncodeChat applies the version fix-ups, serializes to JSON, and writes it
// as a length-capped string<262144> (spec §3, §4.1).
func EncodeChat(w io.Writer, c Chat, v Version) error {
	fixed := applyFixups(c, v)
	body, err := json.Marshal(fixed)
	if err != nil {
		return Malformed("chat failed to serialize: %v", err)
	}
	return WriteString(w, string(body), CapChat)
}
