package heuristic

import (
	"context"
	"strings"

	"github.com/aretw0/concord/pkg/flows/intent"
	"github.com/aretw0/concord/pkg/domain"
)

// IntentAgent derives a user goal from the reviewer's own words. It never
// invents: the kind of graph is lifted from the opening request and the
// description accretes every clarification the reviewer adds.
type IntentAgent struct{}

// NewIntentAgent creates the rule-based goal capability.
func NewIntentAgent() *IntentAgent {
	return &IntentAgent{}
}

var _ intent.Agent = (*IntentAgent)(nil)

// Run implements the intent.Agent contract.
func (a *IntentAgent) Run(_ context.Context, in intent.Exchange) (intent.Reply, error) {
	latest := lastUserMessage(in.History)

	if in.Proposed != nil && isApproval(latest) {
		return intent.Reply{Approved: true}, nil
	}

	goal := deriveGoal(in.History, in.Proposed)
	narrative := "Here's what I understood. Reply with corrections, or approve to lock it in."
	if in.Proposed != nil {
		narrative = "Adjusted per your note. Approve to lock it in, or keep refining."
	}
	return intent.Reply{Narrative: narrative, Proposed: &goal}, nil
}

func lastUserMessage(history []domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == domain.SenderUser {
			return history[i].Content
		}
	}
	return ""
}

// deriveGoal builds the goal from the first user message and appends every
// later user message to the description, so no clarification is dropped.
func deriveGoal(history []domain.Message, prior *domain.UserGoal) domain.UserGoal {
	var userMsgs []string
	for _, m := range history {
		if m.Sender == domain.SenderUser {
			userMsgs = append(userMsgs, strings.TrimSpace(m.Content))
		}
	}
	if len(userMsgs) == 0 {
		return domain.UserGoal{KindOfGraph: "knowledge graph"}
	}

	goal := domain.UserGoal{
		KindOfGraph: kindOfGraph(userMsgs[0]),
		Description: sentence(userMsgs[0]),
	}
	if prior != nil {
		goal.KindOfGraph = prior.KindOfGraph
	}
	for _, msg := range userMsgs[1:] {
		goal.Description += " " + sentence(msg)
	}
	return goal
}

var requestFiller = []string{
	"i want to build", "i want", "i'd like", "i would like", "please build",
	"build me", "build", "create", "make me", "make", "help me with",
}

// kindOfGraph extracts a short noun phrase naming the graph's purpose.
func kindOfGraph(opening string) string {
	text := strings.ToLower(strings.TrimSpace(opening))
	for _, filler := range requestFiller {
		text = strings.TrimSpace(strings.TrimPrefix(text, filler))
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "a "))
	text = strings.TrimSpace(strings.TrimPrefix(text, "an "))

	// "graph of X" / "graph for X" name the subject directly.
	for _, marker := range []string{"graph of ", "graph for ", "graph about "} {
		if i := strings.Index(text, marker); i >= 0 {
			text = text[i+len(marker):]
			break
		}
	}
	text = strings.TrimSuffix(text, ".")
	words := strings.Fields(text)
	if len(words) > 5 {
		words = words[:5]
	}
	if len(words) == 0 {
		return "knowledge graph"
	}
	return strings.Join(words, " ")
}

func sentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
