// internal/domain/homework/submission.go
package homework

// Status is the review verdict code reported by the homework API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// Keys of the homework API payload.
const (
	KeyHomeworks    = "homeworks"
	KeyCurrentDate  = "current_date"
	KeyHomeworkName = "homework_name"
	KeyStatus       = "status"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable text for a status code.
func Verdict(status Status) (string, bool) {
	text, ok := verdicts[status]
	return text, ok
}

// Submission is one homework item of the API response.
type Submission struct {
	Name   string `json:"homework_name"`
	Status Status `json:"status" validate:"oneof=approved reviewing rejected"`
}
