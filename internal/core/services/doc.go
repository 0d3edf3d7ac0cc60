// Package services implements the driving port interfaces. Services
// hold the core orchestration logic for ingestion, retrieval and chat,
// calling out through driven ports (adapters).
package services
