// Package textkit classifies and validates query input so the assistant
// can pick the right prompt template: it decides the dominant language
// of a string and whether it reads as a single word, a phrase, or a
// full sentence.
package textkit

import (
	"errors"
	"strings"
	"unicode"
)

// Language is the dominant language of an input string.
type Language int

const (
	English Language = iota
	Chinese
	Mixed
)

func (l Language) String() string {
	switch l {
	case English:
		return "english"
	case Chinese:
		return "chinese"
	case Mixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// InputType is the granularity of an input string.
type InputType int

const (
	Word InputType = iota
	Phrase
	Sentence
)

func (t InputType) String() string {
	switch t {
	case Word:
		return "word"
	case Phrase:
		return "phrase"
	case Sentence:
		return "sentence"
	default:
		return "unknown"
	}
}

// Classification combines both axes.
type Classification struct {
	Language Language
	Type     InputType
}

// IsChineseIdeograph reports whether r falls in one of the CJK Unified
// Ideograph blocks.
func IsChineseIdeograph(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // Basic CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // Extension A
		return true
	case r >= 0x20000 && r <= 0x2A6DF: // Extension B
		return true
	case r >= 0x2A700 && r <= 0x2B73F: // Extension C
		return true
	case r >= 0x2B740 && r <= 0x2B81F: // Extension D
		return true
	case r >= 0x2B820 && r <= 0x2CEAF: // Extension E
		return true
	case r >= 0x2CEB0 && r <= 0x2EBEF: // Extension F
		return true
	case r >= 0x30000 && r <= 0x3134F: // Extension G
		return true
	}
	return false
}

// isChinesePunctuation matches the common full-width punctuation marks.
func isChinesePunctuation(r rune) bool {
	switch r {
	case '、', '。', '，', '．', '；', '：', '？', '！',
		'【', '】', '（', '）', '《', '》', '〈', '〉',
		'—', '‘', '’', '“', '”':
		return true
	}
	return false
}

// Classify determines the language and granularity of input.
func Classify(input string) Classification {
	input = strings.TrimSpace(input)
	lang := detectLanguage(input)
	return Classification{Language: lang, Type: detectType(input, lang)}
}

func detectLanguage(input string) Language {
	if input == "" {
		return English
	}

	var chineseTotal, nonWhitespace int
	for _, r := range input {
		if IsChineseIdeograph(r) || isChinesePunctuation(r) {
			chineseTotal++
		}
		if !unicode.IsSpace(r) {
			nonWhitespace++
		}
	}
	if nonWhitespace == 0 {
		return English
	}

	ratio := float64(chineseTotal) / float64(nonWhitespace)
	switch {
	case ratio >= 0.6:
		return Chinese
	case chineseTotal > 0:
		return Mixed
	default:
		return English
	}
}

func detectType(input string, lang Language) InputType {
	var spaces, chineseChars int
	hasSentenceEnding := false
	for _, r := range input {
		if unicode.IsSpace(r) {
			spaces++
		}
		if IsChineseIdeograph(r) {
			chineseChars++
		}
		switch r {
		case '.', '!', '?', '。', '！', '？', '…', '：', ':':
			hasSentenceEnding = true
		}
	}
	words := spaces + 1
	if spaces == 0 {
		words = 1
	}

	if lang == English {
		switch {
		case words == 1 && !hasSentenceEnding:
			return Word
		case hasSentenceEnding || words >= 6:
			return Sentence
		default:
			return Phrase
		}
	}

	// Chinese or mixed input classifies on ideograph count first.
	switch {
	case chineseChars == 1 && spaces == 0:
		return Word
	case hasSentenceEnding || chineseChars >= 8:
		return Sentence
	case chineseChars >= 2 && chineseChars <= 7:
		return Phrase
	case words == 1:
		return Word
	case words <= 4:
		return Phrase
	default:
		return Sentence
	}
}

// maxInputLength bounds query input; anything longer is not a
// dictionary lookup.
const maxInputLength = 200

// Validate rejects input the query pipeline cannot sensibly handle:
// empty strings, control characters, input without a single letter, and
// anything longer than maxInputLength bytes.
func Validate(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("input cannot be empty")
	}

	hasLetter := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), IsChineseIdeograph(r):
			hasLetter = true
		case r >= '0' && r <= '9':
		case r == ' ', r == '\t':
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !isChinesePunctuation(r) && r > unicode.MaxASCII {
				return errors.New("input can only contain letters, numbers, punctuation, and spaces")
			}
		default:
			return errors.New("input can only contain letters, numbers, punctuation, and spaces")
		}
	}
	if !hasLetter {
		return errors.New("input must contain at least one letter")
	}
	if len(text) > maxInputLength {
		return errors.New("input length must be between 1 and 200 characters")
	}
	return nil
}
