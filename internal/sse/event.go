package sse

// Event is the payload pushed to connected clients. The Type tag
// discriminates the variants; each constructor below fills in exactly the
// fields its variant carries, so the wire shape stays a flat JSON object.
type Event struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	JobID  string `json:"jobId,omitempty"`
	Status string `json:"status,omitempty"`
	Layer  string `json:"layer,omitempty"`
	Output any    `json:"output,omitempty"`
}

const (
	EventTypeConnectionEstablished = "CONNECTION_ESTABLISHED"
	EventTypeJobStarted            = "JOB_STARTED"
	EventTypeJobCompleted          = "JOB_COMPLETED"
	EventTypeJobFailed             = "JOB_FAILED"
)

// ConnectionEstablished is the first event delivered on every new connection.
func ConnectionEstablished(connectionID string) Event {
	return Event{
		Type: EventTypeConnectionEstablished,
		ID:   connectionID,
	}
}

func JobStarted(jobID string, status string) Event {
	return Event{
		Type:   EventTypeJobStarted,
		JobID:  jobID,
		Status: status,
	}
}

func JobCompleted(jobID string, status string, layer string, output any) Event {
	return Event{
		Type:   EventTypeJobCompleted,
		JobID:  jobID,
		Status: status,
		Layer:  layer,
		Output: output,
	}
}

func JobFailed(jobID string, status string, layer string, output any) Event {
	return Event{
		Type:   EventTypeJobFailed,
		JobID:  jobID,
		Status: status,
		Layer:  layer,
		Output: output,
	}
}
