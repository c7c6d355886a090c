package classifier

import "fulfillment-backend/internal/domains/inspection/model"

const responseFormat = `
Respond ONLY with valid JSON (no markdown, no extra text):
{
  "damage_detected": true/false,
  "damage_type": "none" or tear, dent, puncture, water_damage, crushing, scratch, crack,
  "damage_severity": "none", "minor", "moderate" or "severe",
  "seal_intact": true/false/null,
  "tamper_evidence": true/false,
  "spoilage_detected": true/false,
  "expiry_date_iso": "YYYY-MM-DD" or null,
  "is_expired": true/false/null,
  "overall_result": "OK", "DAMAGED", "EXPIRED", "SPOILED" or "NEEDS_REVIEW",
  "confidence_score": 0-100,
  "quality_grade": "A", "B", "C" or "F",
  "explanation": "findings"
}`

var prompts = map[model.ImageKind]string{
	model.ImagePackage: "You are a quality control inspector looking at a product PACKAGE. " +
		"Check for tears, punctures, dents, crushing, moisture damage and broken or tampered seals. " +
		"Read the expiry date and batch number if visible.",
	model.ImageLabel: "You are a label inspector looking at a product LABEL. " +
		"Extract the expiry, manufacturing and pack dates and the batch or lot number. " +
		"Report whether the label is legible and intact.",
	model.ImageContents: "You are a product quality inspector looking at the CONTENTS of a package. " +
		"Look for mold, rot, discoloration, contamination, leakage and missing pieces.",
	model.ImageDamage: "You are a damage assessor looking at a photo that documents DAMAGE. " +
		"Classify the damage type, rate its severity as minor, moderate or severe, " +
		"and judge whether the contents are compromised.",
}

// Prompt returns the instruction text for kind, defaulting to the package prompt.
func Prompt(kind model.ImageKind) string {
	p, ok := prompts[kind]
	if !ok {
		p = prompts[model.ImagePackage]
	}
	return p + "\n" + responseFormat
}
