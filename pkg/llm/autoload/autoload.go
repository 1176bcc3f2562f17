// Package autoload registers every built-in LLM provider factory via side
// effect. Blank-import it from main.
package autoload

import (
	_ "tempo/pkg/llm/gemini"
	_ "tempo/pkg/llm/ollama"
	_ "tempo/pkg/llm/openailm"
)
