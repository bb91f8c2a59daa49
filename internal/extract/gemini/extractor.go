package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/fieldops/leadextract/internal/extract"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Prompt overrides the built-in extraction instruction.
	Prompt string
}

type Extractor struct {
	client *genai.Client
	model  string
	prompt string
}

func New(ctx context.Context, cfg Config) (*Extractor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(cfg.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}
	return &Extractor{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
		prompt: prompt,
	}, nil
}

type responseSchema struct {
	FullName        string `json:"full_name"`
	CompanyName     string `json:"company_name"`
	JobTitle        string `json:"job_title"`
	PhoneNumber     string `json:"phone_number"`
	MobileNumber    string `json:"mobile_number"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zip_code"`
	Country         string `json:"country"`
	LastContactDate string `json:"last_contact_date"`
	Website         string `json:"website"`
	Notes           string `json:"notes"`
	Confidence      string `json:"confidence"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"full_name":         {Type: genai.TypeString},
		"company_name":      {Type: genai.TypeString},
		"job_title":         {Type: genai.TypeString},
		"phone_number":      {Type: genai.TypeString},
		"mobile_number":     {Type: genai.TypeString},
		"email":             {Type: genai.TypeString},
		"address":           {Type: genai.TypeString},
		"city":              {Type: genai.TypeString},
		"state":             {Type: genai.TypeString},
		"zip_code":          {Type: genai.TypeString},
		"country":           {Type: genai.TypeString},
		"last_contact_date": {Type: genai.TypeString},
		"website":           {Type: genai.TypeString},
		"notes":             {Type: genai.TypeString},
		"confidence":        {Type: genai.TypeString},
	},
	Required: []string{"confidence"},
}

const defaultPrompt = `Extract all visible contact and lead information from this photographed lead card.

Instructions:
- Focus on the LEFT SIDE for primary contact details (name, company, phone, email, address)
- Look for "last date of contact" or similar date fields in the MIDDLE area
- Extract ALL visible fields accurately
- If a field is not visible, unclear, or empty, set it to an empty string
- Set confidence to: "high" if the image is clear and most fields are visible,
  "medium" if some fields are unclear, "low" if image quality is poor

Be thorough and accurate in your extraction.`

// Extract reads the image at imagePath and asks the model for a structured
// contact record. The request pins a low temperature and high-detail media
// resolution so repeat runs over the same card stay stable.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (extract.Contact, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return extract.Contact{}, fmt.Errorf("read image: %w", err)
	}

	resp, err := e.client.Models.GenerateContent(
		ctx,
		e.model,
		[]*genai.Content{genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(e.prompt),
			genai.NewPartFromBytes(data, imageMIMEType(imagePath)),
		}, genai.RoleUser)},
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0.1),
			MediaResolution:  genai.MediaResolutionHigh,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return extract.Contact{}, err
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return extract.Contact{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	return extract.Contact{
		FullName:        strings.TrimSpace(parsed.FullName),
		CompanyName:     strings.TrimSpace(parsed.CompanyName),
		JobTitle:        strings.TrimSpace(parsed.JobTitle),
		PhoneNumber:     strings.TrimSpace(parsed.PhoneNumber),
		MobileNumber:    strings.TrimSpace(parsed.MobileNumber),
		Email:           strings.TrimSpace(parsed.Email),
		Address:         strings.TrimSpace(parsed.Address),
		City:            strings.TrimSpace(parsed.City),
		State:           strings.TrimSpace(parsed.State),
		ZipCode:         strings.TrimSpace(parsed.ZipCode),
		Country:         strings.TrimSpace(parsed.Country),
		LastContactDate: strings.TrimSpace(parsed.LastContactDate),
		Website:         strings.TrimSpace(parsed.Website),
		Notes:           strings.TrimSpace(parsed.Notes),
		Confidence:      extract.Confidence(strings.ToLower(strings.TrimSpace(parsed.Confidence))),
	}, nil
}

func imageMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "image/jpeg"
}
