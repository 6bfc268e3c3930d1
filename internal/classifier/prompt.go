package classifier

import "fmt"

// BuildPrompt renders the fixed call-analysis prompt. The section headers it
// asks for are the ones Parse reads back.
func BuildPrompt(transcript, prospectName string) string {
	if prospectName == "" {
		prospectName = "Unknown"
	}

	prompt := `You are an expert sales call analyzer. Analyze this SDR sales call transcript and determine the outcome.

CRITICAL INSTRUCTIONS:
- Read the ENTIRE conversation before deciding
- Track how the prospect's position evolves throughout the call
- Prioritize statements near the END over the beginning
- Identify if objections were overcome or remained barriers
- Look for commitment language in the final exchanges
- Consider the overall conversation arc, not just keywords

PROSPECT NAME: %s

CALL TRANSCRIPT:
%s

Please analyze this call and provide your assessment in the following format:

1. INITIAL POSITION: [How did the prospect start the conversation?]

2. OBJECTIONS RAISED: [List any concerns or barriers mentioned]

3. OBJECTIONS ADDRESSED: [Were objections overcome? How?]

4. MIND CHANGES: [Did sentiment shift during the call? From what to what?]

5. FINAL SENTIMENT: [Focus on the last 3-5 exchanges - what's the tone and outcome?]

6. COMMITMENT LEVEL: [Did they commit to any next steps? What exactly?]

7. KEY INDICATORS:
   - Interest signals: [quotes showing interest]
   - Rejection signals: [quotes showing disinterest]
   - Action items: [what they want to happen next]

8. DECISION: Choose ONE of these:
   - INTERESTED: Explicitly wants more info, asked to be contacted, mentioned next steps
   - WARM: Some interest but not ready now, asked questions, engaged but no commitment
   - NURTURE: Future potential mentioned but not now, wrong timing, needs to talk to others
   - DEAD_END: Explicit rejection, wrong contact with no referral, no budget/authority/need

9. CONFIDENCE: [1-10, how certain are you of this decision?]

10. REASONING: [2-3 sentences explaining your decision, focusing on the conversation arc]

11. RECOMMENDED EMAIL TOPICS: [If interested/warm, what should the follow-up email focus on?]

DECISION RULES:
INTERESTED if:
- Asks for information to be sent
- Mentions timeline ("check back in Q2")
- Asks about pricing, implementation, case studies
- Says "let me talk to [decision maker]"
- Provides referral contact
- Books a meeting or asks for next steps

WARM if:
- Asks questions but doesn't commit
- Engaged but mentions barriers (budget, timing)
- "Interesting but not right now" without specific timing

NURTURE if:
- "Not now but reach out in [future timeframe]"
- Interested but has clear barrier (contract, freeze)
- Wrong contact but seemed interested in concept

DEAD_END if:
- Explicit rejection: "No," "I'll pass," "Not interested"
- Wrong contact with no referral or interest
- Happy with current solution, no pain points
- Just signed competitor contract
- No budget and no interest in ROI discussion

Remember: The FINAL outcome matters most. Someone who starts skeptical but ends interested = INTERESTED.
Someone who seems polite but ends with "No thanks" = DEAD_END.`

	return fmt.Sprintf(prompt, prospectName, transcript)
}
