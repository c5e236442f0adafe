// Package normalize provides utilities for normalizing titles and language codes.
package normalize

import "strings"

// TitleKey returns the canonical dedup key for a book or recommendation title.
// Deduplication against the saved library and across "more" pages is always by
// this key.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SearchKey lowercases and strips a leading "the " article. Title-match scoring
// applies it to both the candidate title and the query so that "The Hobbit"
// and "hobbit" compare as equal.
func SearchKey(s string) string {
	s = TitleKey(s)
	if rest, ok := strings.CutPrefix(s, "the "); ok {
		return strings.TrimSpace(rest)
	}
	return s
}

// Words splits a query into lowercased words.
func Words(s string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(s)))
}

// iso6391 is the set of valid ISO 639-1 codes.
var iso6391 = func() map[string]bool {
	codes := strings.Fields(`
		aa ab ae af ak am an ar as av ay az ba be bg bh bi bm bn bo br bs ca ce
		ch co cr cs cu cv cy da de dv dz ee el en eo es et eu fa ff fi fj fo fr
		fy ga gd gl gn gu gv ha he hi ho hr ht hu hy hz ia id ie ig ii ik io is
		it iu ja jv ka kg ki kj kk kl km kn ko kr ks ku kv kw ky la lb lg li ln
		lo lt lu lv mg mh mi mk ml mn mr ms mt my na nb nd ne ng nl nn no nr nv
		ny oc oj om or os pa pi pl ps pt qu rm rn ro ru rw sa sc sd se sg si sk
		sl sm sn so sq sr ss st su sv sw ta te tg th ti tk tl tn to tr ts tt tw
		ty ug uk ur uz ve vi vo wa wo xh yi yo za zh zu`)
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}()

// iso6392to1 maps the ISO 639-2 codes the catalog occasionally returns to
// their two-letter equivalents. Both terminology and bibliographic variants.
var iso6392to1 = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "fre": "fr", "deu": "de", "ger": "de",
	"ita": "it", "por": "pt", "nld": "nl", "dut": "nl", "rus": "ru", "jpn": "ja",
	"zho": "zh", "chi": "zh", "kor": "ko", "ara": "ar", "hin": "hi", "pol": "pl",
	"swe": "sv", "nor": "no", "dan": "da", "fin": "fi", "tur": "tr", "ell": "el",
	"gre": "el", "heb": "he", "ces": "cs", "cze": "cs", "hun": "hu", "ron": "ro",
	"rum": "ro", "ukr": "uk", "vie": "vi", "ind": "id", "tha": "th", "cat": "ca",
}

// languageNames maps common language names to ISO 639-1 codes.
var languageNames = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "russian": "ru",
	"japanese": "ja", "chinese": "zh", "korean": "ko", "arabic": "ar",
	"hindi": "hi", "polish": "pl", "swedish": "sv", "norwegian": "no",
	"danish": "da", "finnish": "fi", "turkish": "tr", "greek": "el",
	"hebrew": "he", "czech": "cs", "hungarian": "hu", "romanian": "ro",
	"ukrainian": "uk", "vietnamese": "vi", "indonesian": "id", "thai": "th",
}

// LanguageCode converts various language representations to ISO 639-1:
//   - ISO 639-1 codes: "en" -> "en"
//   - ISO 639-2 codes: "eng" -> "en"
//   - Locale codes: "en-US", "en_GB" -> "en"
//   - Language names: "English" -> "en"
//
// Returns empty string for unrecognized values.
func LanguageCode(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Locale codes keep only the language part.
	if idx := strings.IndexAny(s, "-_"); idx > 0 {
		s = s[:idx]
	}

	if len(s) == 2 && iso6391[s] {
		return s
	}
	if len(s) == 3 {
		if code, ok := iso6392to1[s]; ok {
			return code
		}
	}
	if code, ok := languageNames[s]; ok {
		return code
	}
	return ""
}

// IsEnglish reports whether the raw language value denotes English.
// English-language results get a small ranking bonus in catalog search.
func IsEnglish(raw string) bool {
	return LanguageCode(raw) == "en"
}
