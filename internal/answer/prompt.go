package answer

import "fmt"

// buildPrompt embeds the question and grounding material in a fixed
// instructional prompt. The instructions pin the model to the supplied
// content and ask it to cite sources by their bracketed index.
func buildPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`You are a helpful assistant that answers questions based on the provided web content that was scraped from various websites.

User Question: %s

Relevant Content from Scraped Sources:
%s

Instructions:
1. Answer the question based ONLY on the provided scraped content
2. If the content doesn't contain enough information to answer the question, say so clearly
3. Be concise and accurate
4. Cite which source(s) you used for your answer
5. If no relevant content is provided, suggest that the user scrape more content or rephrase their question

Answer:`, question, contextBlock)
}
