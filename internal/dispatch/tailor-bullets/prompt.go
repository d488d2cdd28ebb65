package tailorbullets

import (
	"fmt"
	"regexp"
	"strings"
)

const promptTemplate = `You are an expert resume writer. Write exactly %d resume bullet points for a candidate applying to the role of %s.
Each bullet must be a single line that combines a strong action, a concrete metric, and the business impact.
Align the wording with the job description below. Return only the bullets, one per line, with no headings or commentary.

Job description:
%s`

var numberedPrefix = regexp.MustCompile(`^\d{1,2}[.)]\s+`)

const bulletMarkers = "-*•–—·▪●"

func buildPrompt(targetRole, jdText string, count int) string {
	return fmt.Sprintf(promptTemplate, count, targetRole, jdText)
}

// cleanBullets keeps the first max usable lines of a model reply.
func cleanBullets(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == max {
			break
		}
		if cleaned := cleanLine(line); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func cleanLine(line string) string {
	s := strings.TrimSpace(line)
	s = numberedPrefix.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, bulletMarkers+" \t")
	return strings.TrimSpace(s)
}
