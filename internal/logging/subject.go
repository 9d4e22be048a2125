package logging

import "strings"

const subjectIDWidth = 8

// formatSubject names the run a console line belongs to, for example
// "Batch 1f0c9a2b (transcode)" or "Ledger 77d1e0aa".
func formatSubject(batchID, ledgerID, stage string) string {
	var subject string
	switch {
	case strings.TrimSpace(batchID) != "":
		subject = "Batch " + shortenID(batchID)
	case strings.TrimSpace(ledgerID) != "":
		subject = "Ledger " + shortenID(ledgerID)
	}
	stage = strings.TrimSpace(stage)
	switch {
	case subject != "" && stage != "":
		return subject + " (" + stage + ")"
	case subject != "":
		return subject
	default:
		return stage
	}
}

func shortenID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > subjectIDWidth {
		return id[:subjectIDWidth]
	}
	return id
}
