package testfont

// Seven is a polygon shaped like the digit 7.
var Seven = Contour{
	{100, 700}, {600, 700}, {600, 620}, {300, 0}, {200, 0}, {500, 620}, {100, 620},
}

// One is a polygon shaped like the digit 1.
var One = Contour{
	{250, 700}, {350, 700}, {350, 80}, {450, 80}, {450, 0}, {150, 0}, {150, 80},
	{250, 80}, {250, 560}, {150, 500}, {150, 600},
}

// Box returns a rectangle with lower left corner (x0,y0) and upper right
// corner (x1,y1).
func Box(x0, y0, x1, y1 int16) Contour {
	return Contour{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}}
}

// Digits returns a builder for a small obfuscated font: private-use
// code-point U+E001 shows a '7', U+E002 shows a '1', U+E003 is blank.
// Glyph names are synthesized by font tooling, the 'post' table carries none.
func Digits() *Builder {
	b := New()
	b.AddGlyph(0xe001, "uniE001", Seven)
	b.AddGlyph(0xe002, "uniE002", One)
	b.AddGlyph(0xe003, "uniE003")
	b.AddName(1, "Obfuscated Digits")
	b.AddName(2, "Regular")
	b.AddName(4, "Obfuscated Digits Regular")
	return b
}
