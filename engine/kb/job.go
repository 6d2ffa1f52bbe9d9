package kb

// SubjectIngest is the NATS subject for asynchronous ingest jobs.
const SubjectIngest = "kb.ingest"

// IngestJob is the queued form of an ingest request. Producers publish
// it; the worker forwards it to the API, which owns the store.
type IngestJob struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}
