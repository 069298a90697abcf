package layout

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultPreset is used when no layout is configured.
const DefaultPreset = "pattachote"

// presets holds the built-in layouts. Rows are number, upper, home and lower,
// unshifted then shifted.
var presets = map[string][Rows]string{
	"pattachote": {
		"๛๒๓๔๕ู๗๘๙๐๑๖",
		"็ตยอร่ดมวแใฌฃ",
		"้ทงกัีานเไข",
		"บปลหิคสะจพ",
		"1\"/,?ุ_.()-%",
		"๊ฤๆญษึฝซถฒฯฦฅ",
		"๋ธำณ์ืผชโฆฑ",
		"ฎฏฐภัศฮฟฉฬ",
	},
	"kedmanee": {
		"ๅ/_ภถุึคตจขช",
		"ๆไำพะัีรนยบลฃ",
		"ฟหกดเ้่าสวง",
		"ผปแอิืทมใฝ",
		"+๑๒๓๔ู฿๕๖๗๘๙",
		"๐\"ฎฑธํ๊ณฯญฐ,ฅ",
		"ฤฆฏโฌ็๋ษศซ.",
		"()ฉฮฺ์?ฒฬฦ",
	},
	"ikbaeb": {
		"1234567890-=",
		"ผปงลตแิ่้ใ์ๆ฿",
		"หกรนดีายอวู",
		"บทสมคัเะไุ",
		"!\"#,%?._()~+",
		"ฎษภถฏฝึ๋็ฆฯ๏|",
		"ฟซขจธืำพชโฬ",
		"ฒฉฐณญฮฑศ๊ฤ",
	},
	"custom": {
		"1234567890-=",
		"ๆไำพะัีรนยบลต",
		"ฟหกดเ้่าสวง",
		"ผปแอิืทมใฝ",
		"!@#$%^&*()_+",
		"จภฎฑธุ๊ณฯญฐถค",
		"ฤฆฏโฌ็๋ษศซ฿",
		"ขชฉฮึ์?ฒฬู",
	},
	"manoonchai_v01": {
		"1234567890-=",
		"ูพงสตคัอบป็ๆฐ",
		"วกนรยเ่ามีะ",
		"ทใหลชไ้ดุ์",
		"!@#$%^&*()_+",
		"ฯฏษศซ๊โฬภฮฒฤฑ",
		"ธขแญจถิืำึ๋",
		"ฆฌฉผฝ฿ณฟฎ?",
	},
	"manoonchai_v02": {
		"1234567890-=",
		"พคยวลปักตบ็ู์",
		"หเนรมอา่้งื",
		"ชไสทจิีดะุ",
		"!@#$%^&*()_+",
		"ฑฒษญฟฎฉภฐฤฆฌฯ",
		"ๆถแขผึใำโศฮ",
		"ฬ๋๊ซฝ?ณธฏ฿",
	},
	"manoonchai_v02b": {
		"1234567890-=",
		"พคยวลปักตบ็ฬฯ",
		"หเนรมอา่้งื",
		"ชไสทจิีดะู",
		"!@#$%^&*()_+",
		"ๆฒษญฟฎฉภฐฤฆฑฌ",
		"์ถแขผุใำโศ\"",
		"ฮ๋๊ซฝณึธฏ?",
	},
}

// ErrUnknownPreset is returned for a preset name that is not built in.
var ErrUnknownPreset = errors.New("layout: unknown preset")

// PresetNames returns the built-in layout names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of a built-in matrix.
func Preset(name string) (Matrix, error) {
	rows, ok := presets[name]
	if !ok {
		return Matrix{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return ParseMatrix(rows), nil
}

// Load creates a layout from a built-in preset.
func Load(name string, locked Mask) (*Layout, error) {
	m, err := Preset(name)
	if err != nil {
		return nil, err
	}
	return New(name, m, locked)
}

// MustLoad is Load for presets known to exist; it panics otherwise.
func MustLoad(name string) *Layout {
	l, err := Load(name, Mask{})
	if err != nil {
		panic(err)
	}
	return l
}
