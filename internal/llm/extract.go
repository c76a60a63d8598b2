package llm

import (
	"encoding/json"
	"strings"

	"github.com/medcheck/api/internal/apperrors"
)

// ExtractJSON locates the candidate JSON payload embedded in freeform
// generated text and parses it into v. The candidate span runs from
// the first '{' to the last '}' in the text; this is a best-effort
// delimiter scan, not a brace-depth match, so it only works when the
// payload's own braces are the first-opening/last-closing pair. The
// span is then parsed strictly: parse failure or a missing brace pair
// surfaces as KindMalformedModelOutput. The parsed structure is not
// validated against any schema beyond what v's type enforces.
func ExtractJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return apperrors.New(apperrors.KindMalformedModelOutput, "no JSON found in model output")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return apperrors.Wrap(err, apperrors.KindMalformedModelOutput, "failed to parse model output as JSON")
	}

	return nil
}
