package entity

// FieldType is the closed vocabulary of semantic field labels.
type FieldType string

const (
	FieldFirstName FieldType = "first_name"
	FieldLastName  FieldType = "last_name"
	FieldName      FieldType = "name"
	FieldEmail     FieldType = "email"
	FieldPhone     FieldType = "phone"
	FieldCompany   FieldType = "company"
	FieldSubject   FieldType = "subject"
	FieldMessage   FieldType = "message"
	FieldCaptcha   FieldType = "captcha"
	FieldDropdown  FieldType = "dropdown"
	FieldChoice    FieldType = "choice"
	FieldSubmit    FieldType = "submit"
	FieldFile      FieldType = "file"
	FieldUnknown   FieldType = "unknown"

	// FieldButton never comes out of the classifier but callers may pass it
	// to the skip gate.
	FieldButton FieldType = "button"
)

func (f FieldType) String() string { return string(f) }

// Classification is the classifier verdict for one element.
type Classification struct {
	Type       FieldType `json:"type"`
	Confidence int       `json:"confidence"`
	Stage      string    `json:"stage,omitempty"`
}

func Unknown() Classification {
	return Classification{Type: FieldUnknown, Confidence: 0, Stage: "unknown"}
}
