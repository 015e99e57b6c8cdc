package messagequeue

import (
	"encoding/json"
	"fmt"
)

type payload interface {
	validate() error
}

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need to be
// valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target payload
	switch subject {
	case SubjectApplicationSubmitted:
		target = &ApplicationSubmittedPayload{}
	case SubjectDecisionMade:
		target = &DecisionMadePayload{}
	case SubjectReviewPending:
		target = &ReviewPendingPayload{}
	case SubjectReviewResolved:
		target = &ReviewResolvedPayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if err := target.validate(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
