package analytics

// resetAmbient clears the process-wide handle between tests.
func resetAmbient() {
	ambient.Store(nil)
}
