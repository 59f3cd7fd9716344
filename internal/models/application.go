package models

// TemplateType selects the wording of an application email.
type TemplateType string

const (
	TemplateGlobal TemplateType = "global"
	TemplateIndia  TemplateType = "india"
)

// ApplicationTarget is one company row of a bulk application request.
type ApplicationTarget struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// ApplicationResult reports the outcome for one company.
type ApplicationResult struct {
	Company string `json:"company"`
	Email   string `json:"email"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}
