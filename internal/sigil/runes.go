package sigil

// Rune alphabets used for sigil decoration. Order matters: digest
// nibbles index into these tables, so reordering would change every
// rendered sigil.
var (
	ElderFuthark = []string{
		"ᚠ", "ᚢ", "ᚦ", "ᚨ", "ᚱ", "ᚲ", "ᚷ", "ᚹ", "ᚺ", "ᚾ", "ᛁ", "ᛃ", "ᛇ", "ᛈ", "ᛉ", "ᛊ",
		"ᛏ", "ᛒ", "ᛖ", "ᛗ", "ᛚ", "ᛜ", "ᛞ", "ᛟ",
	}

	YoungerFuthark = []string{
		"ᚠ", "ᚢ", "ᚦ", "ᚬ", "ᚱ", "ᚴ", "ᚼ", "ᚾ", "ᛁ", "ᛅ", "ᛋ", "ᛏ", "ᛒ", "ᛘ", "ᛚ", "ᛦ",
	}

	MedievalRunes = []string{
		"ᛆ", "ᛒ", "ᛍ", "ᛑ", "ᛂ", "ᛓ", "ᛄ", "ᚻ", "ᛌ", "ᛕ", "ᛖ", "ᛗ", "ᚿ", "ᚮ", "ᛔ", "ᛩ",
		"ᛪ", "ᚱ", "ᛌ", "ᛐ", "ᚢ", "ᚡ", "ᚥ", "ᛨ",
	}

	Ogham = []string{
		"ᚁ", "ᚂ", "ᚃ", "ᚄ", "ᚅ", "ᚆ", "ᚇ", "ᚈ", "ᚉ", "ᚊ", "ᚋ", "ᚌ", "ᚍ", "ᚎ", "ᚏ", "ᚐ",
		"ᚑ", "ᚒ", "ᚓ", "ᚔ", "ᚕ",
	}
)

// AllRunes is the concatenation of every alphabet, in table order.
var AllRunes = concat(ElderFuthark, YoungerFuthark, MedievalRunes, Ogham)

func concat(tables ...[]string) []string {
	var all []string
	for _, t := range tables {
		all = append(all, t...)
	}
	return all
}
