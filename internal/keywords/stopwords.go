package keywords

import "github.com/dgallion1/docsift/internal/prompts"

var french = []string{
	"au", "aux", "avec", "ce", "ces", "cet", "cette", "dans", "de", "des", "du", "elle", "elles",
	"en", "est", "et", "eu", "il", "ils", "je", "la", "le", "les", "leur", "leurs", "lui", "ma",
	"mais", "me", "même", "mes", "moi", "mon", "ne", "nos", "notre", "nous", "on", "ou", "où",
	"par", "pas", "pour", "qu", "que", "qui", "sa", "se", "ses", "son", "sont", "sur", "ta", "te",
	"tes", "toi", "ton", "tu", "un", "une", "vos", "votre", "vous", "été", "être", "avoir", "ont",
	"plus", "comme", "tout", "tous", "toute", "toutes", "aussi", "ainsi", "entre", "sans", "sous",
	"ni", "donc", "car", "si", "afin", "chez", "vers", "dont", "cela", "ceci", "ça", "lors",
}

var english = []string{
	"a", "about", "above", "after", "again", "all", "also", "am", "an", "and", "any", "are", "as",
	"at", "be", "been", "before", "being", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "down", "during", "each", "few", "for", "from", "further", "had", "has",
	"have", "having", "he", "her", "here", "hers", "him", "his", "how", "if", "in", "into", "is",
	"it", "its", "itself", "just", "me", "more", "most", "my", "no", "nor", "not", "now", "of",
	"off", "on", "once", "only", "or", "other", "our", "ours", "out", "over", "own", "same", "she",
	"should", "so", "some", "such", "than", "that", "the", "their", "them", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "under", "until", "up", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will",
	"with", "would", "you", "your", "yours",
}

// Stopwords returns the stoplist for lang. English words are always included.
func Stopwords(lang prompts.Lang) map[string]bool {
	set := make(map[string]bool, len(french)+len(english))
	for _, w := range english {
		set[w] = true
	}
	if lang == prompts.French {
		for _, w := range french {
			set[w] = true
		}
	}
	return set
}
