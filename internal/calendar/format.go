package calendar

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// Style selects a predefined date layout.
type Style int

const (
	StyleShort Style = iota
	StyleMedium
	StyleLong
	StyleFull
)

// ParseStyle maps "short", "medium", "long" and "full" to a Style.
// Anything else yields StyleMedium.
func ParseStyle(s string) Style {
	switch strings.ToLower(s) {
	case "short":
		return StyleShort
	case "long":
		return StyleLong
	case "full":
		return StyleFull
	default:
		return StyleMedium
	}
}

var fallbackLayouts = map[Style]string{
	StyleShort:  "01/02/2006",
	StyleMedium: "Jan 2, 2006",
	StyleLong:   "January 2, 2006",
	StyleFull:   "Monday, January 2, 2006",
}

// Formatter renders dates with localized month and weekday names.
type Formatter struct {
	locale monday.Locale
}

// NewFormatter builds a Formatter for a BCP 47 tag such as "en-US" or "fr".
// Unknown or unsupported tags fall back to en_US.
func NewFormatter(tag string) Formatter {
	return Formatter{locale: resolveLocale(tag)}
}

// Locale returns the resolved locale identifier, e.g. "fr_FR".
func (f Formatter) Locale() string {
	return string(f.locale)
}

// Format renders t using the locale's layout for style.
func (f Formatter) Format(t time.Time, style Style) string {
	return monday.Format(t, f.layout(style), f.locale)
}

// FormatLayout renders t with a Go reference layout, translating month and
// weekday names into the formatter's locale.
func (f Formatter) FormatLayout(t time.Time, layout string) string {
	return monday.Format(t, layout, f.locale)
}

func (f Formatter) layout(style Style) string {
	var byLocale map[monday.Locale]string
	switch style {
	case StyleShort:
		byLocale = monday.ShortFormatsByLocale
	case StyleLong:
		byLocale = monday.LongFormatsByLocale
	case StyleFull:
		byLocale = monday.FullFormatsByLocale
	default:
		byLocale = monday.MediumFormatsByLocale
	}
	if layout, ok := byLocale[f.locale]; ok {
		return layout
	}
	return fallbackLayouts[style]
}

func resolveLocale(tag string) monday.Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return monday.LocaleEnUS
	}
	base, _ := t.Base()
	region, _ := t.Region()
	candidate := monday.Locale(base.String() + "_" + region.String())

	for _, l := range monday.ListLocales() {
		if l == candidate {
			return l
		}
	}
	return monday.LocaleEnUS
}
