package classifier

import "form-filler/internal/domain/entity"

type patternSet struct {
	Type     entity.FieldType
	Patterns []string
}

// fieldPatterns is scanned in order; the first substring hit wins.
var fieldPatterns = []patternSet{
	{entity.FieldFirstName, []string{"first name", "firstname", "given name", "your first name", "fname", "f_name"}},
	{entity.FieldLastName, []string{"last name", "lastname", "surname", "family name", "your last name", "lname", "l_name"}},
	{entity.FieldName, []string{
		"name", "full name", "your name", "customer name", "contact name",
		"your full name", "fullname", "contact person", "applicant name",
	}},
	{entity.FieldEmail, []string{
		"email", "e-mail", "mail address", "your email", "email address",
		"work email", "business email", "your e-mail",
	}},
	{entity.FieldPhone, []string{
		"phone", "mobile", "telephone", "phone number", "contact number",
		"tel", "cell", "your phone", "work phone", "mobile number",
	}},
	{entity.FieldCompany, []string{
		"company", "organization", "business", "employer", "company name",
		"organization name", "business name", "your company", "company/organization",
	}},
	{entity.FieldSubject, []string{
		"subject", "title", "regarding", "reason for contact", "topic",
		"inquiry type", "reason", "nature of inquiry", "how can we help",
	}},
	{entity.FieldMessage, []string{
		"message", "comment", "inquiry", "details", "your message",
		"comments", "additional info", "additional information", "description",
		"project details", "tell us more", "how can we help you",
	}},
	{entity.FieldCaptcha, captchaPatterns},
	{entity.FieldDropdown, []string{"select", "choose", "option", "country", "state", "city"}},
	{entity.FieldChoice, []string{"checkbox", "radio", "option", "terms", "privacy", "consent"}},
}

var captchaPatterns = []string{
	"captcha", "security code", "verification", "i'm not a robot",
	"prove you are human", "anti-spam",
}

// descriptions are embedded once per classifier for the semantic stage.
// Only fillable types take part.
var descriptions = []struct {
	Type entity.FieldType
	Text string
}{
	{entity.FieldFirstName, "first name given name"},
	{entity.FieldLastName, "last name surname family name"},
	{entity.FieldName, "full name contact name customer name your name"},
	{entity.FieldEmail, "email address e-mail mail"},
	{entity.FieldPhone, "phone number telephone mobile cell contact number"},
	{entity.FieldCompany, "company organization business employer"},
	{entity.FieldSubject, "subject topic title reason for contact inquiry type"},
	{entity.FieldMessage, "message comment details inquiry your message description"},
	{entity.FieldDropdown, "select choose option dropdown"},
}
