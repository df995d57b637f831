package ports

// Observability accepts leveled, structured log lines with a component tag.
type Observability interface {
	LogDebug(msg string, fields ...Field)
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	// Component returns a child Observability tagged with the given
	// component name.
	Component(name string) Observability
}

type Field struct {
	Key   string
	Value any
}
