// Package connectors holds the document sources policyhelper ingests from.
// The filesystem source reads and watches the corpus directory.
package connectors
