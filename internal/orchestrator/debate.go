package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomhq/loom/pkg/models"
)

// runDebate executes Rounds sequential rounds. Within a round, every
// participant speaks in list order and sees the full transcript so far;
// the moderator, if configured, speaks last each round with a summary.
// The run output is the rendered transcript plus the last moderator
// statement, if any. An InvocationError aborts the debate; the transcript
// accumulated so far stays on the result.
func (o *Orchestrator) runDebate(ctx context.Context, result *RunResult, roster map[string]models.Agent, topic string, params *models.DebateParams) error {
	participants := pickAgents(roster, params.ParticipantNames)

	var lastModeratorText string
	for round := 1; round <= params.Rounds; round++ {
		for _, speaker := range participants {
			input := debateInput(topic, round, speaker.Name, result.Transcript)
			text, err := o.invoke(ctx, result, speaker, input)
			if err != nil {
				debugLog("[orchestrator.debate] aborting round %d speaker=%s: %v", round, speaker.Name, err)
				return err
			}
			result.Transcript = append(result.Transcript, Statement{Round: round, Speaker: speaker.Name, Text: text})
		}

		if params.ModeratorName != "" {
			moderator := roster[params.ModeratorName]
			input := moderatorInput(topic, round, result.Transcript)
			text, err := o.invoke(ctx, result, moderator, input)
			if err != nil {
				debugLog("[orchestrator.debate] aborting round %d moderator=%s: %v", round, moderator.Name, err)
				return err
			}
			result.Transcript = append(result.Transcript, Statement{Round: round, Speaker: moderator.Name, Moderator: true, Text: text})
			lastModeratorText = text
		}
	}

	result.Output = renderTranscript(result.Transcript)
	if lastModeratorText != "" {
		result.Output += "\n\nFinal summary:\n" + lastModeratorText
	}
	return nil
}

// debateInput builds a participant's turn prompt from the topic and the
// transcript so far.
func debateInput(topic string, round int, speaker string, transcript []Statement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate topic: %s\n\n", topic)
	if len(transcript) > 0 {
		b.WriteString("Transcript so far:\n")
		b.WriteString(renderTranscript(transcript))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "It is round %d and your turn, %s. Make your statement.", round, speaker)
	return b.String()
}

// moderatorInput asks the moderator to summarize the round just completed.
func moderatorInput(topic string, round int, transcript []Statement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate topic: %s\n\n", topic)
	b.WriteString("Transcript so far:\n")
	b.WriteString(renderTranscript(transcript))
	fmt.Fprintf(&b, "\n\nSummarize round %d of the debate.", round)
	return b.String()
}

// renderTranscript formats statements as one line per utterance, tagged
// with round number and speaker.
func renderTranscript(transcript []Statement) string {
	lines := make([]string, 0, len(transcript))
	for _, s := range transcript {
		speaker := s.Speaker
		if s.Moderator {
			speaker += " (moderator)"
		}
		lines = append(lines, fmt.Sprintf("[round %d] %s: %s", s.Round, speaker, s.Text))
	}
	return strings.Join(lines, "\n")
}
