package analyze

// SystemPrompt frames the analysis task for the completion model.
const SystemPrompt = `You are an expert in Talmudic literature and dialectic analysis. Analyze the given sugya and extract its complete argumentation structure.`

// AnalysisPromptTemplate requests one structured document per page. The
// step vocabulary matches the closed step-type enumeration; anything else
// the model emits is coerced during validation.
const AnalysisPromptTemplate = `Analyze this Talmudic sugya from %s and extract ALL dialectic steps.

TEXT:
%s

Provide a COMPLETE analysis with:
1. A concise title (5-10 words) that captures the main topic
2. A one-sentence summary
3. The main theme being discussed
4. The main question being discussed
5. The COMPLETE dialectic structure - every distinguishable step the source supports

For the steps array, include EVERY step of the sugya:
- EVERY question and challenge (kasha, kushya, teyuvta)
- EVERY resolution (terutz, teshuvah)
- EVERY teaching (mishnah, braita, received statement)
- EVERY dispute (machloket), proof and refutation
- ALL intermediate steps

For each step provide:
- id: sequential number starting at 1
- type: one of "teaching", "question", "challenge", "resolution", "dispute", "proof", "refutation", "conclusion", "unresolved", "statement"
- label: clear description of this step (50-100 characters)
- speaker: who is speaking (Mishnah, Gemara, or the named sage)
- content_preview: the first 30-50 words of the step's actual text
- parent_id: id of the earlier step this one responds to (0 for the first step)

IMPORTANT: extract as many steps as possible - aim for %d-%d steps to capture the complete dialectic flow.`
