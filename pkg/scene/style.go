package scene

import (
	"strconv"
	"strings"
)

// Style property names understood by layout and resolution. Anything else
// (background, pointer-events) is carried verbatim for hosts to interpret.
const (
	PropPosition  = "position"
	PropLeft      = "left"
	PropTop       = "top"
	PropWidth     = "width"
	PropHeight    = "height"
	PropMargin    = "margin"
	PropPadding   = "padding"
	PropMaxWidth  = "max-width"
	PropOverflow  = "overflow"
	PropDisplay   = "display"
	PropTransform = "transform"
	PropOpacity   = "opacity"
)

// Px formats a length the canonical way. Every producer in this module goes
// through Px so that settle writes compare string-for-string with animation
// endpoints.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// ParsePx parses a Px-formatted length. Returns ok=false for unset or
// malformed values.
func ParsePx(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TranslateY formats a vertical translation transform.
func TranslateY(v float64) string {
	return "translateY(" + Px(v) + ")"
}

// ParseTranslateY extracts the vertical offset from a TranslateY transform.
// The empty string and "none" parse as zero.
func ParseTranslateY(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return 0, true
	}
	if !strings.HasPrefix(s, "translateY(") || !strings.HasSuffix(s, ")") {
		return 0, false
	}
	return ParsePx(s[len("translateY(") : len(s)-1])
}

// Opacity formats an opacity value.
func Opacity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseOpacity parses an opacity value. The empty string parses as fully
// opaque, matching the unset default.
func ParseOpacity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return v, true
}
