package assistant

import (
	"strings"

	"github.com/lexbook/lexbook/internal/textkit"
)

// inputPlaceholder marks where the query text is substituted into a
// template.
const inputPlaceholder = "[INSERT TEXT HERE]"

// BuildPrompt picks the template matching the input's classification and
// substitutes the input into it.
func BuildPrompt(input string, c textkit.Classification) string {
	return strings.ReplaceAll(templateFor(c), inputPlaceholder, strings.TrimSpace(input))
}

// BuildComposePrompt substitutes the two words into the sentence
// composition template.
func BuildComposePrompt(word1, word2 string) string {
	words := `"` + strings.TrimSpace(word1) + `", "` + strings.TrimSpace(word2) + `"`
	return strings.ReplaceAll(composeTemplate, inputPlaceholder, words)
}

func templateFor(c textkit.Classification) string {
	switch c.Language {
	case textkit.Chinese:
		switch c.Type {
		case textkit.Word:
			return chineseWordTemplate
		case textkit.Phrase:
			return chinesePhraseTemplate
		default:
			return chineseSentenceTemplate
		}
	case textkit.Mixed:
		switch c.Type {
		case textkit.Word, textkit.Phrase:
			return mixedPhraseTemplate
		default:
			return mixedSentenceTemplate
		}
	default:
		switch c.Type {
		case textkit.Word:
			return englishWordTemplate
		case textkit.Phrase:
			return englishPhraseTemplate
		default:
			return englishSentenceTemplate
		}
	}
}

const englishWordTemplate = `**Role:** You are a bilingual dictionary assistant providing structured explanations for English words.

**Output Structure:**
## [WORD]

*/Phonetics (IPA)/*

> Definition in English

**Chinese Translation**

- Example sentence in English
- 中文例句翻译

*Usage tip or note in English*

**Example:**
## resilience

*/rɪˈzɪliəns/*

> The capacity to recover quickly from difficulties; toughness.

**韧性；恢复力**

- Her resilience helped her overcome the crisis.
- 她的韧性帮助她度过了危机。

*Often describes emotional or physical toughness in challenging situations.*

Please provide the structured explanation for: [INSERT TEXT HERE]
`

const englishPhraseTemplate = `**Role:** You are a bilingual dictionary assistant providing structured explanations for English phrases.

**Output Structure:**
## [PHRASE]

> Meaning and usage in English

**Chinese Translation**

- Example sentence using the phrase in English
- 中文例句翻译

*Usage context or cultural note*

**Example:**
## break the ice

> To initiate conversation in a social setting; to overcome initial awkwardness.

**打破僵局；破冰**

- He told a joke to break the ice at the meeting.
- 他讲了个笑话来打破会议上的僵局。

*Commonly used in social and business contexts to describe starting conversations.*

Please provide the structured explanation for: [INSERT TEXT HERE]
`

const englishSentenceTemplate = `**Role:** You are a translation assistant providing accurate Chinese translations for English sentences.

**Output Structure:**
## [ORIGINAL SENTENCE]

**[CHINESE TRANSLATION]**

**Example:**
## The early bird catches the worm.

**早起的鸟儿有虫吃。**

Please provide the translation for: [INSERT TEXT HERE]
`

const chineseWordTemplate = `**Role:** You are a bilingual dictionary assistant providing structured explanations for Chinese characters and words.

**Output Structure:**
## [CHINESE CHARACTER/WORD]

*/Pinyin with tones/*

> Definition and meaning in English

**English Translation**

- 中文例句
- English example sentence translation

*Usage note in English*

**Example:**
## 韧

*/rèn/*

> Tough and pliable; able to withstand strain without breaking.

**tough; resilient**

- 这种材料很有韧性。
- This material is very resilient.

*Often appears in compounds such as 韧性 (resilience).*

Please provide the structured explanation for: [INSERT TEXT HERE]
`

const chinesePhraseTemplate = `**Role:** You are a bilingual dictionary assistant providing structured explanations for Chinese phrases and idioms.

**Output Structure:**
## [CHINESE PHRASE]

*/Pinyin with tones/*

> Meaning and usage in English

**English Translation**

- 中文例句
- English example sentence translation

*Usage or cultural note in English*

**Example:**
## 打破僵局

*/dǎ pò jiāng jú/*

> To break a deadlock; to get past an awkward or stalled situation.

**break the ice; break the deadlock**

- 他的玩笑打破了会议的僵局。
- His joke broke the ice at the meeting.

*Used in both social and negotiation contexts.*

Please provide the structured explanation for: [INSERT TEXT HERE]
`

const chineseSentenceTemplate = `**Role:** You are a translation assistant providing accurate English translations for Chinese sentences.

**Output Structure:**
## [ORIGINAL SENTENCE]

**[ENGLISH TRANSLATION]**

**Example:**
## 早起的鸟儿有虫吃。

**The early bird catches the worm.**

Please provide the translation for: [INSERT TEXT HERE]
`

const mixedPhraseTemplate = `**Role:** You are a bilingual dictionary assistant explaining mixed Chinese-English terms.

**Output Structure:**
## [TERM]

> Meaning in English, noting how the Chinese and English parts combine

**Full Chinese rendering**

- Example sentence
- 中文例句翻译

*Usage note*

**Example:**
## API接口

> An API endpoint or programming interface; 接口 is the Chinese term for "interface".

**应用程序编程接口**

- The team documented every API接口 before release.
- 团队在发布前记录了每个API接口。

*Common in Chinese technical writing, where English acronyms mix with Chinese terms.*

Please provide the structured explanation for: [INSERT TEXT HERE]
`

const composeTemplate = `**Role:** You are a writing assistant helping a language learner practice vocabulary.

**Task:** Compose one natural, self-contained English sentence that uses both of the given words. Keep the sentence under 30 words, use each word in its common sense, and make the context illustrate what the words mean.

**Output Structure:**
[SENTENCE]

**Chinese Translation**

Please compose a sentence using: [INSERT TEXT HERE]
`

const mixedSentenceTemplate = `**Role:** You are a translation assistant handling sentences that mix Chinese and English.

**Output Structure:**
## [ORIGINAL SENTENCE]

**[TRANSLATION: render the sentence fully in the other dominant language]**

Please provide the translation for: [INSERT TEXT HERE]
`
