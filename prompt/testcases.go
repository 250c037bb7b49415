// Package prompt builds the natural-language instructions sent to the model.
// Everything here is pure string construction; the formatting rules exist to
// coax strictly parseable JSON out of a free-form text endpoint.
package prompt

// Field names the model must populate on every test case. The parser rejects
// records missing any of them.
const (
	FieldTitle           = "title"
	FieldPreconditions   = "preconditions"
	FieldSteps           = "steps"
	FieldExpectedResults = "expected_results"
	FieldPriority        = "priority"
)

// GetTestCasesPrompt returns the user prompt requesting structured test cases
// for the given diff. It spells out the exact schema, the five required fields,
// and the closed set of priority labels.
func GetTestCasesPrompt(diff string) string {
	if diff == "" {
		return `No code changes were found between the two revisions.
Return exactly this JSON object and nothing else:
{"test_cases": []}`
	}

	return `Review the following code changes:

` + GetDiffPrompt(diff) + `

For each significant change, create a test case following this exact JSON schema:

` + "```json" + `
{
  "test_cases": [
    {
      "title": "Test case title",
      "preconditions": "Any preconditions needed for the test",
      "steps": "Step-by-step instructions to execute the test",
      "expected_results": "Expected outcomes after test execution",
      "priority": "Critical|High|Medium|Low"
    }
  ]
}
` + "```" + `

IMPORTANT INSTRUCTIONS FOR JSON FORMATTING:
1. Return ONLY valid JSON that strictly follows the schema above
2. Include multiple test cases in the "test_cases" array if needed
3. Every test case must have all required fields: title, preconditions, steps, expected_results, and priority
4. The priority value must be exactly one of: Critical, High, Medium, Low
5. Do not include any explanatory text outside the JSON structure
6. All arrays and objects must be properly closed, all strings double-quoted, no trailing commas

Remember: Your response must be ONLY the JSON object, nothing else.`
}
