// Package services implements the driving ports on top of the driven ones.
//
// Asking is retrieval (Retriever) followed by generation (AnswerComposer);
// ingestion loads, normalises, chunks, embeds and stores documents. Both
// report to a shared MetricsRecorder. Services never import adapters.
package services
