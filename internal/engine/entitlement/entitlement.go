// Package entitlement gates recurrence features by billing plan. Free-plan
// actors get simple daily repetition; everything richer needs premium.
package entitlement

import (
	"fmt"

	"taskcycle/internal/config"
	"taskcycle/internal/recur"
)

// UpgradeRequiredError marks a rejection caused by plan limits rather than
// by an invalid request. The server maps it to 402 Payment Required.
type UpgradeRequiredError struct {
	Plan   string
	Reason string
}

func (e *UpgradeRequiredError) Error() string {
	return fmt.Sprintf("plan %s: %s", e.Plan, e.Reason)
}

// CheckPattern verifies the actor's plan may use the given pattern. The
// config's plans section decides which plans have advanced recurrence;
// plans without it are limited to daily patterns with interval 1 and no
// end conditions.
func CheckPattern(cfg *config.Config, plan string, p recur.Pattern) error {
	if cfg != nil && cfg.PlanAllows(plan) {
		return nil
	}
	if p.Kind != recur.KindDaily {
		return &UpgradeRequiredError{Plan: plan, Reason: fmt.Sprintf("%s recurrence requires a premium plan", p.Kind)}
	}
	if p.Interval != 1 {
		return &UpgradeRequiredError{Plan: plan, Reason: "custom intervals require a premium plan"}
	}
	if p.EndDate != nil || p.MaxOccurrences > 0 {
		return &UpgradeRequiredError{Plan: plan, Reason: "end conditions require a premium plan"}
	}
	return nil
}

// CheckSeriesQuota verifies the plan's active-series cap would not be
// exceeded by creating one more series. A cap of 0 means unlimited.
func CheckSeriesQuota(cfg *config.Config, plan string, active int) error {
	if cfg == nil {
		return nil
	}
	limit := cfg.MaxActiveSeriesFor(plan)
	if limit > 0 && active >= limit {
		return &UpgradeRequiredError{Plan: plan, Reason: fmt.Sprintf("plan allows at most %d active series", limit)}
	}
	return nil
}
