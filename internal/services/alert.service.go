package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pulse/internal/models"
)

// AlertEngine evaluates threshold rules against a snapshot and maintains
// its active alert set. At most one alert per rule kind is active.
type AlertEngine struct {
	enforceDuration bool
	pending         map[models.AlertKind]time.Time
	logger          zerolog.Logger
}

// NewAlertEngine creates an engine. With enforceDuration a rule must stay
// above its threshold for the rule's duration before it raises an alert;
// otherwise the duration is informational only.
func NewAlertEngine(enforceDuration bool, logger zerolog.Logger) *AlertEngine {
	return &AlertEngine{
		enforceDuration: enforceDuration,
		pending:         make(map[models.AlertKind]time.Time),
		logger:          logger.With().Str("component", "alerts").Logger(),
	}
}

// Evaluate applies every rule to the current metric values of snapshot.
// The default rule set is seeded when the snapshot carries no rules.
func (e *AlertEngine) Evaluate(snapshot *models.SystemSnapshot, now time.Time) {
	if len(snapshot.AlertRules) == 0 {
		snapshot.AlertRules = models.DefaultAlertRules()
	}

	for i := range snapshot.AlertRules {
		rule := &snapshot.AlertRules[i]

		if !rule.Enabled {
			delete(e.pending, rule.Kind)
			e.clear(snapshot, rule.Kind, "rule disabled")
			continue
		}

		value, ok := snapshot.MetricValue(rule.Kind)
		if !ok {
			continue
		}

		if value <= rule.Threshold {
			delete(e.pending, rule.Kind)
			e.clear(snapshot, rule.Kind, "below threshold")
			continue
		}

		if idx := findActive(snapshot.ActiveAlerts, rule.Kind); idx >= 0 {
			e.refresh(&snapshot.ActiveAlerts[idx], rule, value)
			continue
		}

		if e.enforceDuration && rule.DurationSeconds > 0 {
			since, waiting := e.pending[rule.Kind]
			if !waiting {
				e.pending[rule.Kind] = now
				continue
			}
			if now.Sub(since) < rule.Duration() {
				continue
			}
		}
		delete(e.pending, rule.Kind)

		e.raise(snapshot, rule, value, now)
	}
}

func (e *AlertEngine) raise(snapshot *models.SystemSnapshot, rule *models.AlertRule, value float64, now time.Time) {
	alert := models.SystemAlert{
		Kind:         rule.Kind,
		Title:        rule.Kind.Title(),
		Message:      alertMessage(rule, value),
		CurrentValue: value,
		Threshold:    rule.Threshold,
		Timestamp:    now,
		Active:       true,
		Severity:     models.SeverityFor(value, rule.Threshold),
	}
	snapshot.ActiveAlerts = append(snapshot.ActiveAlerts, alert)

	rule.TriggeredCount++
	rule.LastTriggered = now
	snapshot.TotalAlerts++

	e.logger.Warn().
		Stringer("kind", rule.Kind).
		Float64("value", value).
		Float64("threshold", rule.Threshold).
		Stringer("severity", alert.Severity).
		Msg("alert raised")
}

// refresh updates an alert that stays active without counting a new trigger
func (e *AlertEngine) refresh(alert *models.SystemAlert, rule *models.AlertRule, value float64) {
	severity := models.SeverityFor(value, rule.Threshold)
	if severity > alert.Severity {
		e.logger.Warn().
			Stringer("kind", rule.Kind).
			Float64("value", value).
			Stringer("from", alert.Severity).
			Stringer("to", severity).
			Msg("alert escalated")
	}

	alert.CurrentValue = value
	alert.Threshold = rule.Threshold
	alert.Severity = severity
	alert.Message = alertMessage(rule, value)
}

func (e *AlertEngine) clear(snapshot *models.SystemSnapshot, kind models.AlertKind, reason string) {
	idx := findActive(snapshot.ActiveAlerts, kind)
	if idx < 0 {
		return
	}
	snapshot.ActiveAlerts = append(snapshot.ActiveAlerts[:idx], snapshot.ActiveAlerts[idx+1:]...)
	e.logger.Info().Stringer("kind", kind).Str("reason", reason).Msg("alert cleared")
}

func findActive(alerts []models.SystemAlert, kind models.AlertKind) int {
	for i := range alerts {
		if alerts[i].Kind == kind {
			return i
		}
	}
	return -1
}

func alertMessage(rule *models.AlertRule, value float64) string {
	var detail string
	if rule.Kind.IsPercent() {
		detail = fmt.Sprintf("%.1f%% exceeds %.1f%%", value, rule.Threshold)
	} else {
		detail = fmt.Sprintf("%.0f exceeds %.0f", value, rule.Threshold)
	}
	if rule.Message == "" {
		return fmt.Sprintf("%s at %s", rule.Kind, detail)
	}
	return fmt.Sprintf("%s (%s)", rule.Message, detail)
}
