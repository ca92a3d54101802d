package main

import (
	"github.com/gdamore/tcell/v2"

	"layerd/internal/input/key"
	"layerd/internal/input/layout"
)

// boardPositions places each key of an ANSI-style board on a
// column/row grid. Cataloged keys outside this map are not drawn.
var boardPositions = map[key.Code][2]int{
	key.CodeEsc: {0, 0}, key.Code1: {1, 0}, key.Code2: {2, 0},
	key.Code3: {3, 0}, key.Code4: {4, 0}, key.Code5: {5, 0},
	key.Code6: {6, 0}, key.Code7: {7, 0}, key.Code8: {8, 0},
	key.Code9: {9, 0}, key.Code0: {10, 0}, key.CodeMinus: {11, 0},
	key.CodeEqual: {12, 0}, key.CodeBackspace: {13, 0},

	key.CodeTab: {0, 1}, key.CodeQ: {1, 1}, key.CodeW: {2, 1},
	key.CodeE: {3, 1}, key.CodeR: {4, 1}, key.CodeT: {5, 1},
	key.CodeY: {6, 1}, key.CodeU: {7, 1}, key.CodeI: {8, 1},
	key.CodeO: {9, 1}, key.CodeP: {10, 1}, key.CodeLeftBrace: {11, 1},
	key.CodeRightBrace: {12, 1}, key.CodeBackslash: {13, 1},

	key.CodeCapsLock: {0, 2}, key.CodeA: {1, 2}, key.CodeS: {2, 2},
	key.CodeD: {3, 2}, key.CodeF: {4, 2}, key.CodeG: {5, 2},
	key.CodeH: {6, 2}, key.CodeJ: {7, 2}, key.CodeK: {8, 2},
	key.CodeL: {9, 2}, key.CodeSemicolon: {10, 2},
	key.CodeApostrophe: {11, 2}, key.CodeEnter: {12, 2},

	key.CodeLeftShift: {0, 3}, key.CodeZ: {1, 3}, key.CodeX: {2, 3},
	key.CodeC: {3, 3}, key.CodeV: {4, 3}, key.CodeB: {5, 3},
	key.CodeN: {6, 3}, key.CodeM: {7, 3}, key.CodeComma: {8, 3},
	key.CodeDot: {9, 3}, key.CodeSlash: {10, 3},
	key.CodeRightShift: {11, 3},

	key.CodeLeftCtrl: {0, 4}, key.CodeLeftMeta: {1, 4},
	key.CodeLeftAlt: {2, 4}, key.CodeSpace: {3, 4},
	key.CodeRightAlt: {4, 4}, key.CodeRightMeta: {5, 4},
	key.CodeCompose: {6, 4}, key.CodeRightCtrl: {7, 4},
}

// layerColors cycles per layer, base first.
var layerColors = []tcell.Color{
	tcell.ColorRed, tcell.ColorGreen, tcell.ColorBlue,
	tcell.ColorOrange, tcell.ColorPurple, tcell.ColorTeal,
	tcell.ColorOlive, tcell.ColorFuchsia,
}

const (
	cellWidth  = 12
	cellHeight = 6 // key name plus up to cellHeight-2 layer lines
)

func draw(screen tcell.Screen, table *layout.Table) {
	screen.Clear()

	names := table.LayerNames()

	// Legend.
	x := 0
	for i, name := range names {
		style := tcell.StyleDefault.Foreground(layerColors[i%len(layerColors)])
		x = drawText(screen, x, 0, style, name) + 2
	}

	// One box per cataloged key that has a board position.
	for pos, code := range table.Catalog().Codes() {
		coord, ok := boardPositions[code]
		if !ok {
			continue
		}
		px := coord[0] * cellWidth
		py := 2 + coord[1]*cellHeight

		drawText(screen, px, py, tcell.StyleDefault.Bold(true), code.String())
		line := py + 1
		for i, name := range names {
			if line >= py+cellHeight-1 {
				break
			}
			label := table.Layer(name).At(pos).Label()
			if len(label) > cellWidth-2 {
				label = label[:cellWidth-2]
			}
			style := tcell.StyleDefault.Foreground(layerColors[i%len(layerColors)])
			drawText(screen, px, line, style, label)
			line++
		}
	}

	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
