package key

import (
	"fmt"
	"strings"
)

// Code identifies a physical key position. Values follow the Linux
// input-event-codes numbering so they can be passed straight through to
// evdev capture and uinput injection.
type Code uint16

// CodeNone is the zero Code and never names a real key.
const CodeNone Code = 0

// MaxCode bounds the code space. Arrays indexed by Code use this size.
const MaxCode Code = 256

// Key codes for the standard ANSI board plus navigation cluster.
const (
	CodeEsc        Code = 1
	Code1          Code = 2
	Code2          Code = 3
	Code3          Code = 4
	Code4          Code = 5
	Code5          Code = 6
	Code6          Code = 7
	Code7          Code = 8
	Code8          Code = 9
	Code9          Code = 10
	Code0          Code = 11
	CodeMinus      Code = 12
	CodeEqual      Code = 13
	CodeBackspace  Code = 14
	CodeTab        Code = 15
	CodeQ          Code = 16
	CodeW          Code = 17
	CodeE          Code = 18
	CodeR          Code = 19
	CodeT          Code = 20
	CodeY          Code = 21
	CodeU          Code = 22
	CodeI          Code = 23
	CodeO          Code = 24
	CodeP          Code = 25
	CodeLeftBrace  Code = 26
	CodeRightBrace Code = 27
	CodeEnter      Code = 28
	CodeLeftCtrl   Code = 29
	CodeA          Code = 30
	CodeS          Code = 31
	CodeD          Code = 32
	CodeF          Code = 33
	CodeG          Code = 34
	CodeH          Code = 35
	CodeJ          Code = 36
	CodeK          Code = 37
	CodeL          Code = 38
	CodeSemicolon  Code = 39
	CodeApostrophe Code = 40
	CodeGrave      Code = 41
	CodeLeftShift  Code = 42
	CodeBackslash  Code = 43
	CodeZ          Code = 44
	CodeX          Code = 45
	CodeC          Code = 46
	CodeV          Code = 47
	CodeB          Code = 48
	CodeN          Code = 49
	CodeM          Code = 50
	CodeComma      Code = 51
	CodeDot        Code = 52
	CodeSlash      Code = 53
	CodeRightShift Code = 54
	CodeLeftAlt    Code = 56
	CodeSpace      Code = 57
	CodeCapsLock   Code = 58
	CodeF1         Code = 59
	CodeF2         Code = 60
	CodeF3         Code = 61
	CodeF4         Code = 62
	CodeF5         Code = 63
	CodeF6         Code = 64
	CodeF7         Code = 65
	CodeF8         Code = 66
	CodeF9         Code = 67
	CodeF10        Code = 68
	CodeF11        Code = 87
	CodeF12        Code = 88
	CodeRightCtrl  Code = 97
	CodeRightAlt   Code = 100
	CodeHome       Code = 102
	CodeUp         Code = 103
	CodePageUp     Code = 104
	CodeLeft       Code = 105
	CodeRight      Code = 106
	CodeEnd        Code = 107
	CodeDown       Code = 108
	CodePageDown   Code = 109
	CodeInsert     Code = 110
	CodeDelete     Code = 111
	CodeLeftMeta   Code = 125
	CodeRightMeta  Code = 126
	CodeCompose    Code = 127
)

// codeNames maps canonical kmonad-style names to codes. Aliases are
// added separately in nameAliases.
var codeNames = map[string]Code{
	"esc":  CodeEsc,
	"1":    Code1,
	"2":    Code2,
	"3":    Code3,
	"4":    Code4,
	"5":    Code5,
	"6":    Code6,
	"7":    Code7,
	"8":    Code8,
	"9":    Code9,
	"0":    Code0,
	"-":    CodeMinus,
	"=":    CodeEqual,
	"bspc": CodeBackspace,
	"tab":  CodeTab,
	"q":    CodeQ,
	"w":    CodeW,
	"e":    CodeE,
	"r":    CodeR,
	"t":    CodeT,
	"y":    CodeY,
	"u":    CodeU,
	"i":    CodeI,
	"o":    CodeO,
	"p":    CodeP,
	"[":    CodeLeftBrace,
	"]":    CodeRightBrace,
	"ret":  CodeEnter,
	"lctl": CodeLeftCtrl,
	"a":    CodeA,
	"s":    CodeS,
	"d":    CodeD,
	"f":    CodeF,
	"g":    CodeG,
	"h":    CodeH,
	"j":    CodeJ,
	"k":    CodeK,
	"l":    CodeL,
	";":    CodeSemicolon,
	"'":    CodeApostrophe,
	"`":    CodeGrave,
	"lsft": CodeLeftShift,
	"\\":   CodeBackslash,
	"z":    CodeZ,
	"x":    CodeX,
	"c":    CodeC,
	"v":    CodeV,
	"b":    CodeB,
	"n":    CodeN,
	"m":    CodeM,
	",":    CodeComma,
	".":    CodeDot,
	"/":    CodeSlash,
	"rsft": CodeRightShift,
	"lalt": CodeLeftAlt,
	"spc":  CodeSpace,
	"caps": CodeCapsLock,
	"f1":   CodeF1,
	"f2":   CodeF2,
	"f3":   CodeF3,
	"f4":   CodeF4,
	"f5":   CodeF5,
	"f6":   CodeF6,
	"f7":   CodeF7,
	"f8":   CodeF8,
	"f9":   CodeF9,
	"f10":  CodeF10,
	"f11":  CodeF11,
	"f12":  CodeF12,
	"rctl": CodeRightCtrl,
	"ralt": CodeRightAlt,
	"home": CodeHome,
	"up":   CodeUp,
	"pgup": CodePageUp,
	"left": CodeLeft,
	"rght": CodeRight,
	"end":  CodeEnd,
	"down": CodeDown,
	"pgdn": CodePageDown,
	"ins":  CodeInsert,
	"del":  CodeDelete,
	"lmet": CodeLeftMeta,
	"rmet": CodeRightMeta,
	"cmp":  CodeCompose,
}

// nameAliases maps alternate spellings to canonical names.
var nameAliases = map[string]string{
	"escape":    "esc",
	"return":    "ret",
	"enter":     "ret",
	"bks":       "bspc",
	"backspace": "bspc",
	"space":     "spc",
	"min":       "-",
	"eql":       "=",
	"lbrc":      "[",
	"rbrc":      "]",
	"bslash":    "\\",
	"scln":      ";",
	"quot":      "'",
	"grv":       "`",
	"comma":     ",",
	"dot":       ".",
	"slash":     "/",
	"right":     "rght",
	"delete":    "del",
	"insert":    "ins",
	"lshift":    "lsft",
	"rshift":    "rsft",
	"lctrl":     "lctl",
	"rctrl":     "rctl",
	"lmeta":     "lmet",
	"rmeta":     "rmet",
}

// names is the reverse of codeNames, canonical name per code.
var names = func() map[Code]string {
	m := make(map[Code]string, len(codeNames))
	for n, c := range codeNames {
		if prev, ok := m[c]; ok && prev <= n {
			continue
		}
		m[c] = n
	}
	return m
}()

// FromName returns the Code for a key name (case-insensitive).
// Returns CodeNone if the name is not recognized.
func FromName(name string) Code {
	name = strings.ToLower(strings.TrimSpace(name))
	if canon, ok := nameAliases[name]; ok {
		name = canon
	}
	if c, ok := codeNames[name]; ok {
		return c
	}
	return CodeNone
}

// String returns the canonical name for the code, or "key(N)" for codes
// without one.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("key(%d)", uint16(c))
}

// Valid reports whether the code is inside the addressable code space.
func (c Code) Valid() bool {
	return c != CodeNone && c < MaxCode
}

// IsModifier reports whether the code is itself a modifier key.
func (c Code) IsModifier() bool {
	switch c {
	case CodeLeftShift, CodeRightShift, CodeLeftCtrl, CodeRightCtrl,
		CodeLeftAlt, CodeRightAlt, CodeLeftMeta, CodeRightMeta:
		return true
	}
	return false
}
