package logging

// MockLogger captures log entries for verification in tests.
type MockLogger struct {
	Entries       []LogEntry
	pendingError  error
	pendingFields []Field
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// LogEntry is a single captured log record.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	m.Entries = append(m.Entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  append(append([]Field{}, m.pendingFields...), fields...),
		Error:   m.pendingError,
	})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }

// WithError returns the same mock with an error field pending. Entries are
// shared with the parent so tests can inspect a single slice.
func (m *MockLogger) WithError(err error) Logger {
	m.pendingError = err
	return m
}

// WithField returns the same mock with a field pending.
func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

// WithFields returns the same mock with fields pending.
func (m *MockLogger) WithFields(fields ...Field) Logger {
	m.pendingFields = append(m.pendingFields, fields...)
	return m
}

// HasEntry checks whether an entry with the given level and message was
// recorded.
func (m *MockLogger) HasEntry(level, message string) bool {
	for _, entry := range m.Entries {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}

// EntriesByLevel returns all entries recorded at the given level.
func (m *MockLogger) EntriesByLevel(level string) []LogEntry {
	var entries []LogEntry
	for _, entry := range m.Entries {
		if entry.Level == level {
			entries = append(entries, entry)
		}
	}
	return entries
}
