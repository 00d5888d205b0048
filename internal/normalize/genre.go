package normalize

import "strings"

// GenreKey folds a human readable genre token into a lookup key:
// lower case, with dashes and underscores read as spaces.
func GenreKey(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}

// TitleCase capitalizes each space separated word of a genre key
func TitleCase(key string) string {
	words := strings.Fields(key)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
