package tip

import "fmt"

// Status is the state of the tip banner.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StatusIdle
	case "loading":
		*s = StatusLoading
	case "success":
		*s = StatusSuccess
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

const LoadingMessage = "Processing your tip..."

// Banner is the transient status line shown above the form.
type Banner struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Visible reports whether the banner has anything to show.
func (b Banner) Visible() bool {
	return b.Status != StatusIdle && b.Message != ""
}
