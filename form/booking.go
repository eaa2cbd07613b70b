package form

import "github.com/tbxark/apptagent/types"

// Booking field names.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
	FieldDate  = "date"
)

// BookingFields declares the appointment form: name, email, phone, preferred
// call date, collected in that order.
func BookingFields() []types.FieldSpec {
	return []types.FieldSpec{
		{
			Name:     FieldName,
			Type:     types.FieldName,
			Required: true,
			Prompt:   "Could you please tell me your full name?",
		},
		{
			Name:     FieldEmail,
			Type:     types.FieldEmail,
			Required: true,
			Prompt:   "Could you please provide your email address?",
		},
		{
			Name:     FieldPhone,
			Type:     types.FieldPhone,
			Required: true,
			Prompt:   "Please share your phone number so we can reach you.",
		},
		{
			Name:     FieldDate,
			Type:     types.FieldDate,
			Required: true,
			Prompt:   "When would you like us to call you? You can say something like 'tomorrow', 'next Monday', or provide a specific date.",
		},
	}
}
