package summarize

// Request is the summarization payload. Absent optional fields take the
// documented defaults before validation.
type Request struct {
	Text       string `json:"text" validate:"required,min=10"`
	Length     string `json:"length" validate:"required,oneof=very-short short medium long"`
	Style      string `json:"style" validate:"required,oneof=concise detailed bullet-points academic simplified"`
	Complexity int    `json:"complexity" validate:"required,min=1,max=5"`
}

// ApplyDefaults fills unset optional fields.
func (r *Request) ApplyDefaults() {
	if r.Length == "" {
		r.Length = "short"
	}
	if r.Style == "" {
		r.Style = "concise"
	}
	if r.Complexity == 0 {
		r.Complexity = 3
	}
}

type Metadata struct {
	OriginalWordCount int    `json:"originalWordCount"`
	SummaryWordCount  int    `json:"summaryWordCount"`
	PercentReduced    int    `json:"percentReduced"`
	Length            string `json:"length"`
	Style             string `json:"style"`
	Complexity        int    `json:"complexity"`
}

type Result struct {
	Summary  string   `json:"summary"`
	Metadata Metadata `json:"metadata"`
}

// QueuedResponse is the 429 body for deferred admission. The client is
// expected to keep retrying the same request until admitted.
type QueuedResponse struct {
	Error         string `json:"error"`
	QueuePosition int64  `json:"queuePosition"`
}

// QuotaStatus reports the caller's current standing against the limits.
type QuotaStatus struct {
	Tier               string `json:"tier"`
	RequestsToday      int    `json:"requestsToday"`
	DailyLimit         int    `json:"dailyLimit"`
	RequestsThisMinute int    `json:"requestsThisMinute"`
	MinuteLimit        int    `json:"minuteLimit"`
}
