package app

import "github.com/troop248/troopmail/internal/core_mail/domain"

// EvaluateSafetyPolicy applies the adult-mixing rule to the eligible recipient set.
// A non-adult sender may include 0 adults or 2 and more adults, never exactly one
// (two-deep leadership rule). An adult sender must include at least one other adult.
// Pure and total; no side effects.
func EvaluateSafetyPolicy(senderIsAdult bool, recipients []domain.EligibleRecipient) error {
	adultCount := 0
	for _, r := range recipients {
		if r.IsAdult() {
			adultCount++
		}
	}

	if !senderIsAdult {
		if adultCount == 0 || adultCount >= 2 {
			return nil
		}
		return domain.Reject(domain.ReasonScoutRuleViolation)
	}

	if adultCount < 1 {
		return domain.Reject(domain.ReasonAdultRuleViolation)
	}
	return nil
}
