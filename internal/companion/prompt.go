package companion

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// QuitDays returns the whole civil days between the quit start date and now.
// Returns 0 when no cessation record or start date exists, and never goes
// negative for start dates in the future.
func QuitDays(info *models.SmokingInfo, now time.Time) int {
	if info == nil || info.QuitStartDate == nil {
		return 0
	}
	days := civil.DateOf(now).DaysSince(civil.DateOf(*info.QuitStartDate))
	if days < 0 {
		return 0
	}
	return days
}

// BuildChatPrompt renders the persona prompt for a user chat turn. Pure:
// output depends only on the inputs and the supplied clock time.
func BuildChatPrompt(chatCtx models.ChatContext, userMessage string, now time.Time) string {
	days := QuitDays(chatCtx.SmokingInfo, now)

	return fmt.Sprintf(
		"You are 'Sterling', an AI quit-smoking companion monkey. "+
			"Address the user as 'Master %s'. Your tone is polite but playful and cute, "+
			"and you end sentences with 'kiki!' or 'keek!'. "+
			"The user is on day %d of quitting smoking. "+
			"Listen carefully and cheer them on. "+
			"Do not echo the user's message back verbatim, and respond in 3 sentences or fewer.\n\n"+
			"[Master's words]: %s\n[Sterling's reply]:",
		chatCtx.User.Name, days, userMessage,
	)
}

// BuildAnalysisPrompt renders the health analysis prompt. Callers must
// verify a quit start date exists before reaching this point; the no-data
// case is answered synchronously and never queued.
func BuildAnalysisPrompt(chatCtx models.ChatContext, now time.Time) string {
	days := QuitDays(chatCtx.SmokingInfo, now)

	return fmt.Sprintf(
		"You are a doctor at a smoking cessation clinic. The patient is on day %d of quitting. "+
			"Explain what positive changes are medically happening in their body at this point, "+
			"and summarize in 3 lines, in a professional and courteous register, the withdrawal "+
			"symptoms to watch for and how to manage them. "+
			"No character acting or filler; deliver trustworthy information.",
		days,
	)
}
