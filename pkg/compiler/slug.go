package compiler

import "strings"

// cyrillicToLatin is a minimal transliteration table for Russian
// Cyrillic, enough to produce stable ASCII filenames from the mixed
// Russian/English titles this pipeline's sources contain. Neither the
// teacher nor any other example repo imports a transliteration
// library, so this one narrow table is the documented stdlib exception
// (see DESIGN.md).
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// safeSlug produces a filesystem-safe, lowercase, ASCII slug, ported
// from compiler.py's safe_slug (python-slugify-backed): transliterate,
// lowercase, collapse non-alphanumeric runs to single underscores, cap at
// 60 characters, and fall back to "item" for empty input.
func safeSlug(text string) string {
	if strings.TrimSpace(text) == "" {
		return "item"
	}

	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	var out strings.Builder
	lastWasSep := false
	for _, r := range b.String() {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
			lastWasSep = false
		default:
			if !lastWasSep && out.Len() > 0 {
				out.WriteByte('_')
				lastWasSep = true
			}
		}
	}

	s := strings.Trim(out.String(), "_")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "_")
	}
	if s == "" {
		return "item"
	}
	return s
}
