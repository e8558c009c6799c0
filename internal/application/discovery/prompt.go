package discovery

import (
	"fmt"
	"strings"
)

// classifySystemPrompt 意图分类系统提示词
const classifySystemPrompt = `You are an intent classifier for a video game discovery service.
Classify the user's query into exactly one of three intents:
- "specific_game": the user references a specific game title (e.g. "games like Hades")
- "clear_intent": the user states a well-formed preference without naming a game (e.g. "relaxing farming sims with co-op")
- "vague": the query is too broad or ambiguous to search well (e.g. "something fun")

Respond with a single JSON object and nothing else:
{
  "type": "specific_game" | "clear_intent" | "vague",
  "gameName": "<the referenced title, empty string if none>",
  "searchDescription": "<a rich 1-3 sentence description of what to search for, written as if describing an ideal game>",
  "confidence": <0-100>,
  "followUpQuestions": [
    {"question": "<a clarifying question>", "suggestedAnswers": ["<answer>", "<answer>", "<answer>"]}
  ]
}

Rules:
- Always produce a non-empty searchDescription, even for vague queries.
- Produce exactly 3 followUpQuestions that would most narrow the search.
- Never ask about platform, hardware or operating system.
- Each question carries 2 to 4 short suggested answers.`

// classifyUserPrompt 意图分类用户提示词模板
const classifyUserPrompt = `Query: %s%s

Classify this query.`

// describeSystemPrompt 游戏描述合成系统提示词
const describeSystemPrompt = `You are a video game encyclopedia.
Given a game title, write a dense 2-4 sentence description of its genre, mechanics, themes, tone and comparable games, suitable as input to a semantic search engine.
If you do not confidently know the game, respond with exactly the single word UNKNOWN and nothing else.
Do not invent details for games you do not know.`

// selectSystemPrompt 相关性精选系统提示词
const selectSystemPrompt = `You are a game recommendation curator.
Given a user's request and a numbered list of candidate games, pick the candidates that best satisfy the request and order them best-first.
For broad or open-ended requests, bias toward inclusiveness: when a candidate plausibly fits, keep it.
For narrow or specific requests, be restrictive: keep only candidates that clearly satisfy every stated requirement.

Respond with a single JSON array and nothing else:
[{"id": "<candidate id>", "reason": "<one concise sentence on why this matches the request>"}]

Rules:
- Use only ids that appear in the candidate list.
- Return at most %d items.
- Every reason must reference the user's request, not generic praise.`

// buildClassifyPrompt 组装分类用户消息，精化回答按轮次附加
func buildClassifyPrompt(query string, refinements []string) string {
	var sb strings.Builder
	if len(refinements) > 0 {
		sb.WriteString("\nThe user has already answered earlier clarifying questions:")
		for i, r := range refinements {
			sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, r))
		}
	}
	return fmt.Sprintf(classifyUserPrompt, query, sb.String())
}

// buildSelectPrompt 组装精选用户消息：请求 + 候选摘要清单
func buildSelectPrompt(query string, candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("User request: ")
	sb.WriteString(query)
	sb.WriteString("\n\nCandidates:\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, candidateDigest(&c)))
	}
	return sb.String()
}

// candidateDigest 生成候选的单行摘要，控制提示词体积
func candidateDigest(c *Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[id=%s] %s", c.ID, c.Name)
	if len(c.Genres) > 0 {
		fmt.Fprintf(&sb, " | genres: %s", strings.Join(c.Genres, ", "))
	}
	if len(c.Tags) > 0 {
		tags := c.Tags
		if len(tags) > 8 {
			tags = tags[:8]
		}
		fmt.Fprintf(&sb, " | tags: %s", strings.Join(tags, ", "))
	}
	if c.ReviewScore > 0 {
		fmt.Fprintf(&sb, " | %d%% positive (%d reviews)", c.ReviewScore, c.ReviewCount)
	}
	if c.ReleaseYear > 0 {
		fmt.Fprintf(&sb, " | %d", c.ReleaseYear)
	}
	if c.IsFree {
		sb.WriteString(" | free to play")
	}
	if desc := truncate(c.ShortDescription, 200); desc != "" {
		fmt.Fprintf(&sb, " | %s", desc)
	}
	return sb.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
