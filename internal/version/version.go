package version

// Current is the release version stamped into CLI output.
const Current = "0.1.0"
