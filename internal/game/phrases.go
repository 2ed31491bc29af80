package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const DefaultLanguage = "es"

var builtinPhrases = map[string][]string{
	"es": {
		"Algo que te haga reír",
		"Tu lugar favorito de la casa",
		"Lo más viejo que tienes cerca",
		"Algo azul",
		"Tu comida favorita",
		"Un objeto redondo",
		"Algo que uses todos los días",
		"Lo más raro que encuentres",
		"Tu zapato izquierdo",
		"Un selfie gracioso",
		"Algo verde",
		"Tu bebida favorita",
		"Un objeto rectangular",
		"Algo brillante",
		"Lo más pequeño que encuentres",
		"Tu posesión más valiosa",
		"Algo rojo",
		"Un libro o revista",
		"Algo suave",
		"Tu mejor imitación de un animal",
	},
	"en": {
		"Something that makes you laugh",
		"Your favorite place at home",
		"The oldest thing near you",
		"Something blue",
		"Your favorite food",
		"A round object",
		"Something you use every day",
		"The weirdest thing you can find",
		"Your left shoe",
		"A funny selfie",
		"Something green",
		"Your favorite drink",
		"A rectangular object",
		"Something shiny",
		"The smallest thing you can find",
		"Your most valuable possession",
		"Something red",
		"A book or magazine",
		"Something soft",
		"Your best animal impression",
	},
}

var builtinMaturePhrases = map[string][]string{
	"es": {
		"Tu ropa interior más loca",
		"Algo que no deberías tener",
		"Tu peor foto de perfil",
		"Algo embarazoso",
		"Tu postura de yoga más ridícula",
	},
	"en": {
		"Your craziest underwear",
		"Something you shouldn't have",
		"Your worst profile picture",
		"Something embarrassing",
		"Your most ridiculous yoga pose",
	},
}

// PhraseGenerator hands out round prompts per language.
type PhraseGenerator struct {
	mu              sync.RWMutex
	defaultLanguage string
	pools           map[string][]string
	mature          map[string][]string
}

func NewPhraseGenerator(defaultLanguage string) *PhraseGenerator {
	g := &PhraseGenerator{
		defaultLanguage: normalizeLanguage(defaultLanguage),
		pools:           make(map[string][]string),
		mature:          make(map[string][]string),
	}
	if g.defaultLanguage == "" {
		g.defaultLanguage = DefaultLanguage
	}
	for lang, phrases := range builtinPhrases {
		g.AddPhrases(lang, phrases, false)
	}
	for lang, phrases := range builtinMaturePhrases {
		g.AddPhrases(lang, phrases, true)
	}
	return g
}

// AddPhrases extends a language pool, skipping blanks and phrases already present.
func (g *PhraseGenerator) AddPhrases(language string, phrases []string, mature bool) int {
	language = normalizeLanguage(language)
	if language == "" {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	target := g.pools
	if mature {
		target = g.mature
	}
	seen := make(map[string]struct{}, len(g.pools[language])+len(g.mature[language]))
	for _, phrase := range g.pools[language] {
		seen[phrase] = struct{}{}
	}
	for _, phrase := range g.mature[language] {
		seen[phrase] = struct{}{}
	}
	added := 0
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		target[language] = append(target[language], phrase)
		added++
	}
	return added
}

// Supports reports whether language has its own pool.
func (g *PhraseGenerator) Supports(language string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pools[normalizeLanguage(language)]) > 0
}

// PoolSize is the number of distinct phrases UniquePhrases can draw from.
func (g *PhraseGenerator) PoolSize(language string, nsfwAllowed bool) int {
	return len(g.pool(language, nsfwAllowed))
}

// UniquePhrases samples count phrases without replacement. Unsupported languages fall back to
// the default pool; mature phrases join the pool only when nsfwAllowed. When count exceeds the
// pool the whole pool is returned, shuffled, and nothing repeats.
func (g *PhraseGenerator) UniquePhrases(count int, language string, nsfwAllowed bool) []string {
	if count <= 0 {
		return nil
	}
	pool := g.pool(language, nsfwAllowed)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// pool returns a fresh copy so callers may shuffle it.
func (g *PhraseGenerator) pool(language string, nsfwAllowed bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	language = normalizeLanguage(language)
	if len(g.pools[language]) == 0 {
		language = g.defaultLanguage
	}
	pool := make([]string, 0, len(g.pools[language])+len(g.mature[language]))
	pool = append(pool, g.pools[language]...)
	if nsfwAllowed {
		pool = append(pool, g.mature[language]...)
	}
	return pool
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
