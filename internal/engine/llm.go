package engine

import (
	"context"
	"strings"

	"golang.org/x/time/rate"
)

// limiter throttles outbound LLM calls. nil = unlimited.
var limiter *rate.Limiter

func initLimiter(callsPerSecond float64) {
	if callsPerSecond <= 0 {
		limiter = nil
		return
	}
	limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	IncrLLMCalls()
	resp, err := RetryDo(ctx, LLMRetryConfig, func() (string, error) {
		return cfg.LLMClient.Complete(ctx, "", prompt)
	})
	if err != nil {
		IncrLLMErrors()
		return "", err
	}
	return stripFences(resp), nil
}

// ExtractJSONField extracts one string field from malformed JSON where the
// value may contain unescaped newlines or special characters. Used as a
// fallback when strict unmarshalling of LLM output fails.
func ExtractJSONField(raw, field string) string {
	prefix := `"` + field + `"`
	idx := strings.Index(raw, prefix)
	if idx < 0 {
		return ""
	}
	rest := raw[idx+len(prefix):]
	rest = strings.TrimSpace(rest)
	if len(rest) == 0 || rest[0] != ':' {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) == 0 || rest[0] != '"' {
		return ""
	}
	rest = rest[1:] // skip opening quote

	var sb strings.Builder
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' && i+1 < len(rest) {
			if rest[i+1] == '"' {
				sb.WriteByte('"')
				i++
				continue
			}
			if rest[i+1] == 'n' {
				sb.WriteByte('\n')
				i++
				continue
			}
			sb.WriteByte(rest[i])
			continue
		}
		if rest[i] == '"' {
			return sb.String()
		}
		sb.WriteByte(rest[i])
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	return ""
}
