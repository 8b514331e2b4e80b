// Package router maps a free-text message to either plain conversation or a
// single capability call with extracted arguments.
//
// Two deterministic strategies are applied in order:
//
//  1. Explicit-command path: the message starts with a recognized command
//     token (convert, translate, lyrics, weather, with Spanish aliases and an
//     optional leading slash) followed by a fixed positional grammar. A parse
//     failure yields a capability call carrying a validation error so the
//     user sees why the command failed instead of silently falling back to
//     conversation.
//  2. Natural-language path: capability keyword lists are matched against the
//     lowercased message. Exactly one capability may match, and its required
//     arguments must be extractable; any ambiguity or missing argument
//     defaults to Conversational. A capability is never guessed with
//     unfilled required arguments.
package router

import (
	"regexp"
	"strings"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/internal/util"
	"github.com/ecastro/convobot/logging"
)

// Kind discriminates the router's decision.
type Kind int

const (
	// Conversational routes to the completion collaborator.
	Conversational Kind = iota
	// CapabilityCall routes to a named capability with extracted arguments.
	CapabilityCall
)

// Route is the router's decision for one message. Err is non-nil when an
// explicit command was recognized but its arguments failed to parse; the
// dispatch core turns it into a user-facing validation reply.
type Route struct {
	Kind       Kind
	Capability string
	Args       core.Args
	Err        *core.DispatchError
}

// Options configure a Router.
type Options struct {
	Logger logging.Logger
}

// Router is immutable after construction and safe for concurrent use.
type Router struct {
	logger     logging.Logger
	registered map[string]bool
	currencies []string
}

// New builds a Router over the registered capability descriptors. The known
// currency code set is read from the currency descriptor so router and
// registry never disagree.
func New(descriptors []core.Descriptor, optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Router{
		logger:     opts.Logger,
		registered: make(map[string]bool, len(descriptors)),
	}
	for _, d := range descriptors {
		r.registered[d.Name] = true
		if d.Name == "currency" {
			for _, arg := range d.Args {
				if arg.Name == "from" {
					r.currencies = arg.Enum
				}
			}
		}
	}
	return r
}

// commandAliases maps explicit command tokens to capability names.
var commandAliases = map[string]string{
	"convert": "currency", "convertir": "currency",
	"translate": "translate", "traducir": "translate",
	"lyrics": "lyrics", "letra": "lyrics",
	"weather": "weather", "clima": "weather",
}

// Route classifies one message. The decision is made once per message and is
// deterministic: the same text always yields the same route.
func (r *Router) Route(text string) Route {
	text = strings.TrimSpace(text)
	if text == "" {
		return Route{Kind: Conversational}
	}

	if rt, ok := r.explicitCommand(text); ok {
		return rt
	}
	return r.naturalLanguage(text)
}

// explicitCommand handles the fixed positional grammar of command messages.
func (r *Router) explicitCommand(text string) (Route, bool) {
	head, rest, _ := strings.Cut(text, " ")
	head = strings.ToLower(strings.TrimPrefix(head, "/"))
	name, ok := commandAliases[head]
	if !ok || !r.registered[name] {
		return Route{}, false
	}
	rest = strings.TrimSpace(rest)

	var rt Route
	switch name {
	case "currency":
		rt = parseConvert(rest)
	case "translate":
		rt = parseTranslate(rest)
	case "lyrics":
		rt = parseLyrics(rest)
	case "weather":
		rt = parseWeather(rest)
	}
	if rt.Err != nil {
		r.logger.Debug("router.command.invalid", "capability", rt.Capability, "error", rt.Err.Message)
	}
	return rt, true
}

func parseConvert(rest string) Route {
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return invalid("currency", "usage: convert <amount> <from> <to>, e.g. convert 100 USD EUR")
	}
	amount, err := util.ParseAmount(fields[0])
	if err != nil {
		return invalid("currency", "amount %q is not a positive number", fields[0])
	}
	return call("currency", core.Args{"amount": amount, "from": fields[1], "to": fields[2]})
}

// langPair matches an optional leading "from:to" language pair.
var langPair = regexp.MustCompile(`^([A-Za-z]{2}):([A-Za-z]{2})\s+(.+)$`)

func parseTranslate(rest string) Route {
	if rest == "" {
		return invalid("translate", "missing text to translate, e.g. translate hello world")
	}
	if m := langPair.FindStringSubmatch(rest); m != nil {
		return call("translate", core.Args{"text": m[3], "from": strings.ToLower(m[1]), "to": strings.ToLower(m[2])})
	}
	// Direction inference: text with Spanish markers goes to English,
	// everything else to Spanish with service-side source detection.
	if looksSpanish(rest) {
		return call("translate", core.Args{"text": rest, "from": "es", "to": "en"})
	}
	return call("translate", core.Args{"text": rest, "from": "auto", "to": "es"})
}

// restByRe accepts the looser "lyrics [of|for|to] <title> by <artist>" form.
var restByRe = regexp.MustCompile(`(?i)^(?:of |for |to )?(.+?) by (.+?)\s*\??$`)

func parseLyrics(rest string) Route {
	artist, title, found := strings.Cut(rest, " - ")
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if found && artist != "" && title != "" {
		return call("lyrics", core.Args{"artist": artist, "title": title})
	}
	if m := restByRe.FindStringSubmatch(rest); m != nil {
		return call("lyrics", core.Args{"artist": strings.TrimSpace(m[2]), "title": strings.TrimSpace(m[1])})
	}
	return invalid("lyrics", "usage: lyrics <artist> - <title>, e.g. lyrics Queen - Bohemian Rhapsody")
}

func parseWeather(rest string) Route {
	if rest == "" {
		return invalid("weather", "missing city name, e.g. weather Madrid")
	}
	return call("weather", core.Args{"city": rest})
}

// spanishMarkers are high-frequency Spanish words and characters used to
// infer translation direction for bare translate commands.
var spanishMarkers = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "de": true, "que": true,
	"y": true, "en": true, "un": true, "una": true, "es": true, "hola": true,
	"como": true, "por": true, "para": true, "gracias": true, "buenos": true,
	"buenas": true, "dias": true, "mundo": true, "donde": true, "esta": true,
}

func looksSpanish(text string) bool {
	if strings.ContainsAny(text, "ñ¿¡áéíóúü") {
		return true
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if spanishMarkers[strings.Trim(w, ".,!?")] {
			return true
		}
	}
	return false
}

// capabilityKeywords drives the natural-language match. Order fixes the
// tie-break scan; a message matching more than one capability is ambiguous
// and stays conversational.
var capabilityKeywords = []struct {
	name     string
	keywords []string
}{
	{"currency", []string{"convert", "conversion", "currency", "exchange rate", "convertir", "moneda", "dolar", "dolares", "dollar", "dollars", "euro", "euros", "pound", "pounds", "libra", "libras", "yen", "peso", "pesos"}},
	{"translate", []string{"translate", "translation", "traducir", "traduccion", "how do you say", "como se dice"}},
	{"lyrics", []string{"lyrics", "lyric", "letra de", "song lyrics", "cancion de"}},
	{"weather", []string{"weather", "clima", "forecast", "temperatura en"}},
}

func (r *Router) naturalLanguage(text string) Route {
	folded := fold(text)

	var matched []string
	for _, ck := range capabilityKeywords {
		if !r.registered[ck.name] {
			continue
		}
		hit := false
		for _, kw := range ck.keywords {
			if containsWord(folded, kw) {
				hit = true
				break
			}
		}
		// Two currency code mentions count as a currency signal even
		// without a keyword ("change 50 GBP into JPY").
		if !hit && ck.name == "currency" {
			hit = r.countCurrencyMentions(folded) >= 2
		}
		if hit {
			matched = append(matched, ck.name)
		}
	}
	if len(matched) != 1 {
		if len(matched) > 1 {
			r.logger.Debug("router.nl.ambiguous", "candidates", strings.Join(matched, ","))
		}
		return Route{Kind: Conversational}
	}

	name := matched[0]
	args, ok := r.extractArgs(name, text, folded)
	if !ok {
		r.logger.Debug("router.nl.unfilled_args", "capability", name)
		return Route{Kind: Conversational}
	}
	return call(name, args)
}

func (r *Router) extractArgs(name, text, folded string) (core.Args, bool) {
	switch name {
	case "currency":
		return r.extractCurrencyArgs(folded)
	case "translate":
		return extractTranslateArgs(text)
	case "lyrics":
		return extractLyricsArgs(text)
	case "weather":
		return extractWeatherArgs(text)
	}
	return nil, false
}

var amountRe = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)

// currencyNames maps natural-language currency mentions to codes.
var currencyNames = map[string]string{
	"dollar": "USD", "dollars": "USD", "dolar": "USD", "dolares": "USD",
	"euro": "EUR", "euros": "EUR",
	"pound": "GBP", "pounds": "GBP", "libra": "GBP", "libras": "GBP",
	"yen": "JPY", "yenes": "JPY",
	"peso": "MXN", "pesos": "MXN",
	"yuan": "CNY", "franc": "CHF", "francs": "CHF",
	"rupee": "INR", "rupees": "INR", "won": "KRW",
	"real": "BRL", "reales": "BRL",
}

// extractCurrencyArgs finds an amount plus two distinct currency mentions in
// reading order. Anything less leaves the message conversational.
func (r *Router) extractCurrencyArgs(folded string) (core.Args, bool) {
	m := amountRe.FindString(folded)
	if m == "" {
		return nil, false
	}
	amount, err := util.ParseAmount(m)
	if err != nil {
		return nil, false
	}

	var codes []string
	for _, w := range strings.Fields(folded) {
		w = strings.Trim(w, ".,!?¿¡")
		code := r.currencyCode(w)
		if code == "" {
			continue
		}
		if len(codes) == 0 || codes[len(codes)-1] != code {
			codes = append(codes, code)
		}
	}
	if len(codes) < 2 {
		return nil, false
	}
	return core.Args{"amount": amount, "from": codes[0], "to": codes[1]}, true
}

func (r *Router) countCurrencyMentions(folded string) int {
	n := 0
	for _, w := range strings.Fields(folded) {
		if r.currencyCode(strings.Trim(w, ".,!?¿¡")) != "" {
			n++
		}
	}
	return n
}

func (r *Router) currencyCode(word string) string {
	upper := strings.ToUpper(word)
	for _, c := range r.currencies {
		if upper == c {
			return c
		}
	}
	return currencyNames[strings.ToLower(word)]
}

var sayInRe = regexp.MustCompile(`(?i)how do you say (.+?) in ([a-z]+)\s*\??$`)
var diceEnRe = regexp.MustCompile(`(?i)como se dice (.+?) en ([a-z]+)\s*\??$`)

var languageNames = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "japanese": "ja", "russian": "ru",
	"ingles": "en", "espanol": "es", "frances": "fr", "aleman": "de",
	"italiano": "it", "portugues": "pt",
}

func extractTranslateArgs(text string) (core.Args, bool) {
	for _, re := range []*regexp.Regexp{sayInRe, diceEnRe} {
		if m := re.FindStringSubmatch(fold(text)); m != nil {
			code, ok := languageNames[strings.ToLower(m[2])]
			if !ok {
				return nil, false
			}
			return core.Args{"text": strings.Trim(m[1], `"' `), "from": "auto", "to": code}, true
		}
	}
	return nil, false
}

var lyricsByRe = regexp.MustCompile(`(?i)lyrics (?:of |for |to )?(.+?) by (.+?)\s*\??$`)
var letraDeRe = regexp.MustCompile(`(?i)letra de (.+?) de (.+?)\s*\??$`)

func extractLyricsArgs(text string) (core.Args, bool) {
	for _, re := range []*regexp.Regexp{lyricsByRe, letraDeRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return core.Args{"artist": strings.TrimSpace(m[2]), "title": strings.TrimSpace(m[1])}, true
		}
	}
	return nil, false
}

var weatherInRe = regexp.MustCompile(`(?i)weather (?:like )?(?:today )?in (.+?)\s*\??$`)
var climaEnRe = regexp.MustCompile(`(?i)clima (?:de |en )(.+?)\s*\??$`)

func extractWeatherArgs(text string) (core.Args, bool) {
	for _, re := range []*regexp.Regexp{weatherInRe, climaEnRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return core.Args{"city": strings.TrimSpace(m[1])}, true
		}
	}
	return nil, false
}

// fold lowercases and strips the accents that matter for keyword matching.
func fold(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n")
	return replacer.Replace(s)
}

// containsWord reports whether phrase occurs in text on word boundaries.
func containsWord(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	for idx >= 0 {
		before := idx == 0 || !isWordChar(text[idx-1])
		afterIdx := idx + len(phrase)
		after := afterIdx >= len(text) || !isWordChar(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func call(name string, args core.Args) Route {
	return Route{Kind: CapabilityCall, Capability: name, Args: args}
}

func invalid(name, format string, args ...any) Route {
	return Route{Kind: CapabilityCall, Capability: name, Err: core.NewValidationError(name, format, args...)}
}
