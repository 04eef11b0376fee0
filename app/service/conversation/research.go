package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"canvasd/app/service/chatlog"
	"canvasd/app/service/session"
)

const researchHeading = "## Research Results"

// searchIndicators mark questions that benefit from fresh information
// rather than the model's training data.
var searchIndicators = []string{
	"research",
	"in-depth",
	"comprehensive",
	"detailed analysis",
	"thorough investigation",
	"deep dive",
	"academic",
	"scholarly",
	"literature review",
	"systematic review",
	"meta-analysis",
	"citations",
	"references",
	"bibliography",
	"peer-reviewed",
	"journal",
	"publication",
	"latest",
	"current events",
	"news",
}

// handleResearch routes a /research command to the relay workflow,
// bypassing the chat model entirely. A successful answer is appended to the
// document under the research heading; the append is deliberate external
// input, not an editing step, so it doesn't consume an undo slot.
func (s *Service) handleResearch(ctx context.Context, sess *session.Session, query string) {
	sess.Tracker.Clear()

	sess.Chat.Append(chatlog.Turn{
		Role:    chatlog.RoleUser,
		Content: "Research: " + query,
	})

	sess.Chat.Append(chatlog.Turn{
		Role:    chatlog.RoleAssistant,
		Content: s.runResearch(ctx, sess, query),
	})
}

func (s *Service) runResearch(ctx context.Context, sess *session.Session, query string) string {
	if s.relay == nil {
		return "Research via n8n is currently disabled. Enable it in the configuration to use /research."
	}

	result, err := s.relay.SendResearch(ctx, query, sess.Document.Get())
	if err != nil {
		slog.Error("Research request failed", "query", query, "error", err)
		return fmt.Sprintf("Error during research: %v", err)
	}

	if !result.Success {
		return fmt.Sprintf("Research error: %s", result.Err)
	}

	if result.Content == "" {
		return "Research complete, but no content was returned."
	}

	current := sess.Document.Get()
	sess.Document.Set(current+"\n\n"+researchHeading+"\n\n"+result.Content, false)

	return "Research complete! Added results to your document."
}

func shouldSearch(input string) bool {
	lower := strings.ToLower(input)

	for _, indicator := range searchIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	return false
}
