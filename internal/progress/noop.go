package progress

// NoopSink discards every event. A legal Sink per spec.md §4.7 — used by
// tests and by any front end that doesn't want terminal rendering.
type NoopSink struct{}

func (NoopSink) SystemLogger(string) SystemLogger { return noopSystemLogger{} }

type noopSystemLogger struct{}

func (noopSystemLogger) TaskLogger(string) TaskLogger { return noopTaskLogger{} }
func (noopSystemLogger) TaskSkip(string)               {}
func (noopSystemLogger) TaskAbort(string)              {}
func (noopSystemLogger) Log(Level, string)             {}
func (noopSystemLogger) Finalize(SystemSummary)        {}

type noopTaskLogger struct{}

func (noopTaskLogger) Log(Level, string)                                           {}
func (noopTaskLogger) CommandBegin(string) CommandHandle                           { return nil }
func (noopTaskLogger) CommandUpdate(CommandHandle, string)                        {}
func (noopTaskLogger) CommandFinish(CommandHandle)                                {}
func (noopTaskLogger) TransferBegin(TransferDirection, string, string, uint64) TransferHandle { return nil }
func (noopTaskLogger) TransferUpdate(TransferHandle, uint64)                      {}
func (noopTaskLogger) TransferFinish(TransferHandle)                              {}
func (noopTaskLogger) End(string)                                                 {}
