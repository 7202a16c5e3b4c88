package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/notebook"
)

var composeCmd = &cobra.Command{
	Use:   "compose [word1] [word2]",
	Short: "Compose a practice sentence from two notebook words",
	Long: `Ask the AI assistant for a sentence that uses two words together.

With no arguments, two distinct words are drawn at random from the
saved notebook sections. Previously composed entries (headings joining
words with " + ") are excluded from the draw.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var word1, word2 string
		switch len(args) {
		case 2:
			word1, word2 = strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
		case 0:
			sections, err := newStore().Sections()
			if err != nil {
				return err
			}
			word1, word2, err = pickComposeWords(sections)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s + %s\n", renderFaint("Composing:"), renderHeading(word1), renderHeading(word2))
		default:
			return fmt.Errorf("compose takes two words, or none to draw from the notebook")
		}

		composer, err := newComposer()
		if err != nil {
			return err
		}
		sentence, err := composer.Compose(cmd.Context(), word1, word2)
		if err != nil {
			return fmt.Errorf("composing with %q and %q: %w", word1, word2, err)
		}
		fmt.Println(sentence)
		return nil
	},
}

// pickComposeWords draws two distinct word identities from the saved
// sections, skipping composed entries.
func pickComposeWords(sections []notebook.Section) (string, string, error) {
	var words []string
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if strings.Contains(s.Identity, " + ") || seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		words = append(words, s.Identity)
	}
	if len(words) < 2 {
		return "", "", fmt.Errorf("need at least 2 saved words to compose; found %d", len(words))
	}
	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	return words[0], words[1], nil
}

func init() {
	rootCmd.AddCommand(composeCmd)
}
