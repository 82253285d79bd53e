package models

const (
	// NotesSeparator joins transcript and notes into the combined searchable
	// text so notes remain retrievable even without a transcript.
	NotesSeparator = "\n\n--- Additional Notes ---\n\n"

	// NoAnswerFallback is returned when no chunk matches a query. Not an
	// error: the completion service is never invoked in that case.
	NoAnswerFallback = "I couldn't find any relevant information in the calls to answer your question. Try rephrasing or ask about a different topic."
)

var (
	LinkedInSystemPrompt = `You are an expert at parsing LinkedIn profile experience sections.
Extract the following information from the pasted LinkedIn experience text:
- Current role (job title from the most recent position)
- Company name (from the most recent position)
- Past experience (list of previous roles with company and duration)
- Top skills mentioned in the experience descriptions

Return ONLY valid JSON.`

	LinkedInUserPromptTemplate = `LINKEDIN EXPERIENCE TEXT:
%s

Extract structured data as JSON with this schema:
{
  "currentRole": "job title",
  "company": "company name",
  "pastExperience": [
    {"role": "title", "company": "company", "duration": "X years/mos", "description": "brief summary"}
  ],
  "skills": ["skill1", "skill2", "skill3", "skill4", "skill5"]
}`

	AnalysisSystemPrompt = `You are an expert at analyzing customer discovery calls.
Extract pain points, feature requests, and objections with supporting quotes from the transcript.
For each item, provide:
- text: A clear, concise description
- quote: The exact quote from the transcript that supports this
- severity/priority: low, medium, or high
- confidence: A score from 0-1 indicating your confidence in this extraction

Return structured JSON ONLY.`

	AnalysisUserPromptTemplate = `TRANSCRIPT:
%s

Extract all insights as structured JSON with this schema:
{
  "painPoints": [{"text": "...", "quote": "...", "severity": "high|medium|low", "confidence": 0.95}],
  "featureRequests": [{"text": "...", "quote": "...", "priority": "high|medium|low", "confidence": 0.95}],
  "objections": [{"text": "...", "quote": "...", "confidence": 0.95}]
}`

	AnswerSystemPrompt = `You are analyzing customer discovery calls. Answer questions based on the provided excerpts from customer calls.
Always cite which call(s) you're referencing by mentioning the participant name and date.
Be specific and use direct quotes when possible.
If the information isn't in the provided context, say so.`

	AnswerUserPromptTemplate = `CONTEXT FROM CALLS:
%s

QUESTION: %s

Provide a clear answer with specific call citations.`
)
