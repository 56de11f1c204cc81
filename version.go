package analytics

// Version is reported to the data plane in every message's
// context.library block.
const Version = "1.0.0"

const libraryName = "analytics-go"
