package oracle

const defaultRelatedPrompt = `You are the backend of a knowledge-graph explorer. For the concept "%[1]s", propose up to %[2]d closely related concepts.

Return ONLY a JSON object of this exact form:
{"items": [{"label": "...", "relation": "...", "relationType": "...", "explanation": "..."}]}

Rules:
- "label" is the related concept's name.
- "relation" is a short phrase linking "%[1]s" to the concept (e.g. "is a type of").
- "relationType" is one of: hierarchical, compositional, causal, temporal, neutral.
- "explanation" is one or two sentences about the related concept.
Do not output any other text.`

const defaultPreciseAddendum = `
Only include concepts with a strict, well-established relationship to the term. Prefer narrow technical relations over loose associations, and omit anything speculative.`

const defaultExplanationPrompt = `Explain the concept "%s" in two or three plain sentences for a curious layperson. Return only the explanation text, with no preamble.`
