package script

// formatPrompt is the punctuation repair instruction sent ahead of the raw
// transcript. The [INST] markers target the Llama 2 chat models; the OpenAI
// models tolerate them. The trailing spaces inside the text are part of the
// prompt as tuned.
const formatPrompt = "[INST] Below is the transcript of a video. Please correct the capitalization and \n" +
	"punctuation, including making separate paragraphs, without changing any of the text. If a word \n" +
	"is misspelled, correct the word, and if a word does not exist take your best guess as to the \n" +
	"correct word. Only return the corrected text without commentary. [/INST]"

// metadataPrompt asks for a video title and description from the repaired script.
const metadataPrompt = "[INST] Write a YouTube video title and video description for the following video script. [/INST]"

// buildPrompt joins the instruction and the text block. The text is
// newline-terminated so the model sees a complete final line.
func buildPrompt(prompt, text string) string {
	return prompt + "\n" + text + "\n"
}
