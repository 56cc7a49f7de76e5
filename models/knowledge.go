package models

// KnowledgeBase maps a category (admissions, fees, ...) to its topics.
type KnowledgeBase map[string]map[string]string
