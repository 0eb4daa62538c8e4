package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// --- Classifier Model Prompts ---
// The taxonomy restates the A-D formulations verbatim so that model-based
// classification stays consistent with the regex matcher; E/F/G cover
// old-style opinions that predate the standardized phrasings.
const ClassifierSystemPrompt = "Je bent een expert in het analyseren van adviezen van de Raad van State. Je taak is het classificeren van het dictum (eindoordeel) van een advies. Je antwoordt uitsluitend met een JSON object."

const ClassifierUserPrompt = `Analyseer het dictum (eindoordeel) in onderstaand advies.

STAP 1: Zoek eerst naar een van de vier standaard formuleringen:

A) "De Afdeling advisering van de Raad van State heeft geen opmerkingen bij het voorstel en adviseert het voorstel bij de Tweede Kamer der Staten-Generaal in te dienen."

B) "De Afdeling advisering van de Raad van State heeft een aantal opmerkingen bij het voorstel en adviseert daarmee rekening te houden voordat het voorstel bij de Tweede Kamer der Staten-Generaal wordt ingediend."

C) "De Afdeling advisering van de Raad van State heeft een aantal bezwaren bij het voorstel en adviseert het voorstel niet bij de Tweede Kamer der Staten-Generaal in te dienen, tenzij het is aangepast."

D) "De Afdeling advisering van de Raad van State heeft ernstige bezwaren tegen het voorstel en adviseert het niet bij de Tweede Kamer der Staten-Generaal in te dienen."

STAP 2: Als je GEEN van bovenstaande formuleringen vindt, bepaal dan of het een advies in oude stijl is:

E) Oude stijl - positief: Het advies bevat geen of slechts enkele opmerkingen EN adviseert (impliciet of expliciet) om het voorstel naar de Tweede Kamer te sturen

F) Oude stijl - kritisch: Het advies adviseert tot aanpassing van het voorstel of de toelichting EN/OF adviseert om het stuk nog niet naar de Tweede Kamer te sturen

G) Alleen gebruiken als het echt onduidelijk is of als er geen eindoordeel te vinden is

Geef je antwoord in JSON format:
{
    "category": "X",
    "confidence": 0.0,
    "reasoning": ""
}

"category" is een letter: A, B, C, D, E, F of G. "confidence" is een getal tussen 0 en 1. "reasoning" is een korte toelichting waarom je voor deze categorie kiest.

Geef ALLEEN het JSON object terug, geen andere tekst.

Advies:
`

// DefaultClassifierModel is the Gemini model used when none is configured.
const DefaultClassifierModel = "gemini-1.5-pro"

// VertexClient holds the pre-configured classifier model.
type VertexClient struct {
	ClassifierModel *genai.GenerativeModel
	baseClient      *genai.Client
}

// NewVertexClient creates a client with the classifier model configured for
// deterministic, bounded JSON output.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultClassifierModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ClassifierSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1), // low temperature: determinism over creativity
		MaxOutputTokens:  genai.Ptr[int32](1024),
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		ClassifierModel: model,
		baseClient:      baseClient,
	}, nil
}

// GenerateText sends the prompt and drains the streamed reply into a single
// string. The call blocks until the stream is exhausted; partial replies are
// never surfaced to callers.
func (c *VertexClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	it := c.ClassifierModel.GenerateContentStream(ctx, genai.Text(prompt))

	var reply strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("streaming generate content: %w", err)
		}
		reply.WriteString(extractText(resp))
	}
	return reply.String(), nil
}

// extractText concatenates all text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
