package llm

const systemInstruction = `You are the PromptForge Neural Engine.
Audit raw user input and reconstruct it into a high-performance "Forged Output".
Return response in strictly valid JSON format.`

var numberField = map[string]interface{}{"type": "number"}
var stringField = map[string]interface{}{"type": "string"}
var stringList = map[string]interface{}{"type": "array", "items": stringField}

// analysisSchema is sent as the strict response format of every forge call.
var analysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"score":            numberField,
		"difficulty":       stringField,
		"useCase":          stringField,
		"detailedAnalysis": stringField,
		"metrics": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"clarity":         numberField,
				"specificity":     numberField,
				"context":         numberField,
				"goalOrientation": numberField,
				"structure":       numberField,
				"constraints":     numberField,
			},
			"required":             []string{"clarity", "specificity", "context", "goalOrientation", "structure", "constraints"},
			"additionalProperties": false,
		},
		"strengths":      stringList,
		"improvements":   stringList,
		"improvedPrompt": stringField,
	},
	"required":             []string{"score", "difficulty", "useCase", "detailedAnalysis", "metrics", "strengths", "improvements", "improvedPrompt"},
	"additionalProperties": false,
}
