package factory

import (
	"fmt"

	"botsy-widget-be/pkg/llm"
	"botsy-widget-be/pkg/llm/gemini"
	"botsy-widget-be/pkg/llm/groq"
)

func NewLLMProvider(providerType, modelName, groqBaseURL, groqKey, geminiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("groq provider requires GROQ_API_KEY")
		}
		return groq.NewGroqProvider(groqBaseURL, groqKey, modelName), nil
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(geminiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
