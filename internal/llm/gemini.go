package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
)

const systemPrompt = `You are reviewing a scanned Korean duty timesheet.
The sheet is a fixed-layout table. Column 1 holds leave-type labels
(연가, 조퇴, 병가, 특휴, 교육). Columns 2-3 hold day-shift employee names,
columns 4-7 hold night-shift employee names.

You receive the sheet image and a JSON list of entries already captured.
Return ONLY a JSON array of entries that are visible on the sheet but
missing from that list. Each element:
{"name": "<Korean name, 2-3 syllables>", "column": <2-7>,
 "leave_type": "<연가|조퇴|병가|특휴|교육|Unknown>",
 "box": {"x0":..,"y0":..,"x1":..,"y1":..},
 "reasoning": "<one short sentence>"}

Return [] when nothing is missing. Never invent names that are not on the
sheet.`

// Gemini implements Assist using a Vertex AI generative model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini constructs a Vertex AI backed assist client. The model is
// configured for deterministic JSON output.
func NewGemini(ctx context.Context, projectID, region, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &Gemini{client: client, model: model, name: modelName}, nil
}

func (g *Gemini) Name() string { return g.name }

// Close releases the underlying client connection.
func (g *Gemini) Close() error { return g.client.Close() }

// ProposeEntries sends the sheet image plus the known-entry summary and
// parses the model's JSON reply.
func (g *Gemini) ProposeEntries(ctx context.Context, image []byte, known []Known) ([]Proposal, error) {
	knownJSON, err := json.Marshal(known)
	if err != nil {
		return nil, fmt.Errorf("marshal known entries: %w", err)
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", image),
		genai.Text("Already captured entries:\n"+string(knownJSON)),
	)
	if err != nil {
		return nil, apperr.Collaboratorf("gemini: %v", err)
	}

	raw := extractText(resp)
	if raw == "" {
		return nil, apperr.Collaboratorf("gemini returned no text content")
	}
	return parseProposals(raw)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
