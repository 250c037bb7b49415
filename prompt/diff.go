package prompt

// GetDiffPrompt wraps raw diff content in delimiters so the model can tell it
// apart from the surrounding instructions.
func GetDiffPrompt(diffContent string) string {
	return `[Diff Start]
` + diffContent + `
[Diff End]`
}
