package output

// ChartOutput describes a rendered chart in JSON output.
type ChartOutput struct {
	Name   string `json:"name,omitempty"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Path   string `json:"path"`
	Format string `json:"format"`
}

// BatchOutput is the JSON output of the batch command.
type BatchOutput struct {
	Manifest string        `json:"manifest"`
	Charts   []ChartOutput `json:"charts"`
}

// SeedInfo describes one loaded CSV file.
type SeedInfo struct {
	Table    string `json:"table"`
	FilePath string `json:"file_path"`
}

// SeedOutput is the JSON output of the seed command.
type SeedOutput struct {
	Database string     `json:"database"`
	Seeds    []SeedInfo `json:"seeds"`
}

// TablesOutput is the JSON output of the query tables command.
type TablesOutput struct {
	Tables []string `json:"tables"`
}
