package research

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt is shared by every completion call of a run.
func SystemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are an expert researcher. Today is %s. Follow these instructions when responding:
  - You may be asked to research subjects that are after your knowledge cutoff, assume the user is right when presented with news.
  - The user is a highly experienced analyst, no need to simplify it, be as detailed as possible and make sure your response is correct.
  - Be highly organized.
  - Suggest solutions that I didn't think about.
  - Be proactive and anticipate my needs.
  - Treat me as an expert in all subject matter.
  - Mistakes erode my trust, so be accurate and thorough.
  - Provide detailed explanations, I'm comfortable with lots of detail.
  - Value good arguments over authorities, the source is irrelevant.
  - Consider new technologies and contrarian ideas, not just the conventional wisdom.
  - You may use high levels of speculation or prediction, just flag it for me.`, now.UTC().Format(time.RFC3339))
}

func planPrompt(topic string, findings []string, maxQueries int) string {
	prompt := fmt.Sprintf("Given the following prompt from the user, generate a list of SERP queries to research the topic. Return a maximum of %d queries, but feel free to return less if the original prompt is clear. Make sure each query is unique and not similar to each other: <prompt>%s</prompt>", maxQueries, topic)
	if len(findings) > 0 {
		prompt += "\n\nHere are some learnings from previous research, use them to generate more specific queries: " + strings.Join(findings, "\n")
	}
	return prompt
}

func extractPrompt(query string, contents []string, maxFindings int) string {
	var sb strings.Builder
	for i, c := range contents {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("<content>\n")
		sb.WriteString(c)
		sb.WriteString("\n</content>")
	}
	return fmt.Sprintf("Given the following contents from a SERP search for the query <query>%s</query>, generate a list of learnings from the contents. Return a maximum of %d learnings, but feel free to return less if the contents are clear. Make sure each learning is unique and not similar to each other. The learnings should be concise and to the point, as detailed and information dense as possible. Make sure to include any entities like people, places, companies, products, things, etc in the learnings, as well as any exact metrics, numbers, or dates. The learnings will be used to research the topic further.\n\n<contents>%s</contents>", query, maxFindings, sb.String())
}

func learningsBlock(findings []string) string {
	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = "<learning>\n" + f + "\n</learning>"
	}
	return strings.Join(parts, "\n")
}

func reportPrompt(prompt string, findings []string) string {
	return fmt.Sprintf("Given the following prompt from the user, write a final report on the topic using the learnings from research. Make it as as detailed as possible, aim for 3 or more pages, include ALL the learnings from research:\n\n<prompt>%s</prompt>\n\nHere are all the learnings from previous research:\n\n<learnings>\n%s\n</learnings>", prompt, learningsBlock(findings))
}

func answerPrompt(prompt string, findings []string) string {
	return fmt.Sprintf("Given the following prompt from the user, write a final answer on the topic using the learnings from research. Follow the format specified in the prompt. Do not yap or babble or include any other text than the answer besides the format specified in the prompt. Keep the answer as concise as possible - usually it should be just a few words or maximum a sentence. Try to follow the format specified in the prompt (for example, if the prompt is using Latex, the answer should be in Latex. If the prompt gives multiple answer choices, the answer should be one of the choices).\n\n<prompt>%s</prompt>\n\nHere are all the learnings from research on the topic that you can use to help answer the prompt:\n\n<learnings>\n%s\n</learnings>", prompt, learningsBlock(findings))
}

func feedbackPrompt(query string, numQuestions int) string {
	return fmt.Sprintf("Given the following query from the user, ask some follow up questions to clarify the research direction. Return a maximum of %d questions, but feel free to return less if the original query is clear: <query>%s</query>", numQuestions, query)
}
