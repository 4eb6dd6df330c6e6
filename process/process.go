// Package process defines the business-process entities detected in a
// contract and the tolerant parser that builds them from raw LLM records.
package process

import (
	"fmt"
	"log/slog"
	"strings"
)

// Type classifies a business process. Closed set; unknown processes fall
// back to TypeOther.
type Type string

const (
	TypeReception     Type = "reception"
	TypePreparation   Type = "preparation"
	TypeExecution     Type = "execution"
	TypeValidation    Type = "validation"
	TypePayment       Type = "payment"
	TypeDelivery      Type = "delivery"
	TypeTransport     Type = "transport"
	TypeStorage       Type = "storage"
	TypeCustoms       Type = "customs"
	TypeDocumentation Type = "documentation"
	TypeQualification Type = "qualification"
	TypeMaintenance   Type = "maintenance"
	TypeWarranty      Type = "warranty"
	TypeOther         Type = "other"
)

// Process is one detected, independently actionable business activity.
type Process struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description" yaml:"description"`
	Type             Type   `json:"type" yaml:"type"`
	Steps            []string `json:"steps" yaml:"steps"`
	ResponsibleParty string `json:"responsible_party" yaml:"responsible_party"`
	Triggers         string `json:"triggers" yaml:"triggers"`
}

// IsComplete reports whether all five descriptive fields are populated.
// Completeness affects confidence scoring, not validity.
func (p *Process) IsComplete() bool {
	return p.Name != "" && p.Description != "" && len(p.Steps) > 0 &&
		p.ResponsibleParty != "" && p.Triggers != ""
}

// ParseRecords converts raw records recovered from an LLM answer into
// Process entities. A record missing any of name, description, or steps is
// skipped with a warning; one malformed record never aborts the batch.
// Records with an absent or duplicate id get a sequential two-digit
// fallback id. Source order is preserved.
func ParseRecords(raw []any) []Process {
	processes := make([]Process, 0, len(raw))
	seenIDs := make(map[string]bool)

	for i, item := range raw {
		rec, ok := item.(map[string]any)
		if !ok {
			slog.Warn("process: skipping non-object record", "index", i)
			continue
		}

		name := stringField(rec, "name")
		description := stringField(rec, "description")
		steps := stepsField(rec)

		if name == "" || description == "" || len(steps) == 0 {
			slog.Warn("process: skipping record with missing required fields",
				"index", i, "name", name,
				"has_description", description != "", "steps", len(steps))
			continue
		}

		id := stringField(rec, "id")
		if id == "" || seenIDs[id] {
			n := len(processes) + 1
			id = fmt.Sprintf("%02d", n)
			for seenIDs[id] {
				n++
				id = fmt.Sprintf("%02d", n)
			}
		}
		seenIDs[id] = true

		processes = append(processes, Process{
			ID:               id,
			Name:             name,
			Description:      description,
			Type:             InferType(name, description),
			Steps:            steps,
			ResponsibleParty: stringField(rec, "responsible_party"),
			Triggers:         stringField(rec, "triggers"),
		})
	}

	return processes
}

// typeKeywords drives keyword-based type inference over name+description.
// Both English and French forms, matching the contract corpora this was
// tuned on.
var typeKeywords = []struct {
	t        Type
	keywords []string
}{
	{TypeReception, []string{"reception", "réception", "accueil", "receive"}},
	{TypePreparation, []string{"preparation", "préparation", "setup", "prepare"}},
	{TypeValidation, []string{"validation", "verify", "check", "approve", "confirm"}},
	{TypePayment, []string{"payment", "paiement", "pay", "billing", "invoice"}},
	{TypeDelivery, []string{"delivery", "livraison", "deliver", "ship", "send"}},
	{TypeTransport, []string{"transport", "shipping", "logistics", "move"}},
	{TypeStorage, []string{"storage", "stockage", "store", "warehouse"}},
	{TypeCustoms, []string{"customs", "douane", "border", "import", "export"}},
	{TypeDocumentation, []string{"documentation", "document", "record", "report"}},
	{TypeQualification, []string{"qualification", "qualify", "assess", "evaluate"}},
	{TypeMaintenance, []string{"maintenance", "maintain", "repair", "service"}},
	{TypeWarranty, []string{"warranty", "garantie", "guarantee", "support"}},
	{TypeExecution, []string{"execution", "exécution", "perform", "execute"}},
}

// InferType guesses the process type from its name and description.
// First keyword match wins; ordering puts the more specific categories
// before the catch-all execution bucket.
func InferType(name, description string) Type {
	text := strings.ToLower(name + " " + description)
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.t
			}
		}
	}
	return TypeOther
}

// stringField reads a string-valued field from a raw record, tolerating a
// missing key or a non-string value.
func stringField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stepsField reads the steps list, keeping only non-empty string elements.
func stepsField(rec map[string]any) []string {
	list, ok := rec["steps"].([]any)
	if !ok {
		return nil
	}
	steps := make([]string, 0, len(list))
	for _, s := range list {
		if str, ok := s.(string); ok && strings.TrimSpace(str) != "" {
			steps = append(steps, strings.TrimSpace(str))
		}
	}
	return steps
}
