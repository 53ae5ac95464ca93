package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FactorCatalog is an ordered collection of canonical success-factor
// definitions, typically loaded once at startup from reference data.
type FactorCatalog []CanonicalFactor

// ParseFactorCatalog decodes a JSON catalog document.
func ParseFactorCatalog(data []byte) (FactorCatalog, error) {
	var catalog FactorCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode factor catalog: %w", err)
	}
	return catalog, nil
}

// Validate checks catalog integrity: non-empty identifiers and text,
// recognised stages, and a unique (factor id, stage) pair per entry. It
// returns every problem found rather than stopping at the first.
func (c FactorCatalog) Validate() []error {
	var errs []error
	seen := make(map[string]int, len(c))
	for i, factor := range c {
		if strings.TrimSpace(factor.ID) == "" {
			errs = append(errs, fmt.Errorf("catalog entry %d: empty factor id", i))
		}
		if strings.TrimSpace(factor.Text) == "" {
			errs = append(errs, fmt.Errorf("catalog entry %d (%s): empty text", i, factor.ID))
		}
		if !KnownStage(factor.Stage) {
			errs = append(errs, fmt.Errorf("catalog entry %d (%s): unknown stage %q", i, factor.ID, factor.Stage))
		}
		key := factor.ID + "\x00" + string(factor.Stage)
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("catalog entry %d (%s) duplicates entry %d for stage %q", i, factor.ID, prev, factor.Stage))
			continue
		}
		seen[key] = i
	}
	return errs
}
